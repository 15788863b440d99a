// Package effect defines the suspension requests a task body may yield
// instead of an ordinary awaited value: Delay, Abort and Cancel.
//
// Effects are opaque tokens. Only Process interprets them, turning each into
// a settled outcome: Delay succeeds after its duration, Abort fails with its
// reason, and Cancel fails with a *CancelSignal so the caller can tell a
// cooperative cancellation apart from an ordinary failure.
package effect
