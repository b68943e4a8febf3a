// Package ranking implements the iterative stratification drivers that
// repeatedly run a model over changing DMU subsets: peel-the-onion ranking,
// which strips successive efficient frontiers, and categorical
// stratification, which compares DMUs only against units at the same or a
// lower level of a hierarchy category.
package ranking
