// Package core provides the data model of the DEA engine.
//
// This package contains the types shared by every model and driver:
//
//   - DataSet: DMUs, categories with their input/output roles, and the
//     coefficient table
//   - Solution: per-run results keyed by DMU code (status, efficiency score,
//     peer weights, category duals)
//   - Extensions: optional Solution results attached by composition (RTS
//     duals, super-efficiency domain, second-phase slacks)
//   - Session: issues Solutions with session-scoped identifiers and
//     peer-weight stores
//
// Example usage:
//
//	data := core.NewDataSet()
//	_ = data.AddCoefficient("A", "x1", 2)
//	_ = data.AddCoefficient("A", "q", 1)
//	_ = data.AddInputCategory("x1")
//	_ = data.AddOutputCategory("q")
//	if err := data.Validate(); err != nil {
//	    return err
//	}
//
//	session := core.NewSession()
//	sol, err := session.NewSolution(data)
//
// Capability checks replace type hierarchies for optional results:
//
//	if rts, ok := sol.RTS(); ok {
//	    fmt.Println(rts.Value(code))
//	}
package core
