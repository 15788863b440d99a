// Package invariant reports programming errors that must fail fast.
package invariant

import "fmt"

// Violation is the panic value raised by Check.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string { return "invariant violation: " + v.Msg }

// Check panics with a *Violation when cond is false.
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic(&Violation{Msg: fmt.Sprintf(format, args...)})
	}
}
