package effect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NetPo4ki/go-taskslot/internal/invariant"
)

// Kind identifies an effect.
type Kind int

const (
	KindCancel Kind = iota
	KindDelay
	KindAbort
)

var kindNames = map[Kind]string{
	KindCancel: "cancel",
	KindDelay:  "delay",
	KindAbort:  "abort",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a known effect kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

var (
	// ErrCancelled is the reason used when Cancel is given a nil reason.
	ErrCancelled = errors.New("effect: cancelled")
	// ErrAborted is the reason used when Abort is given a nil reason.
	ErrAborted = errors.New("effect: aborted")
)

// Effect is an immutable suspension request. The zero value is not a valid
// effect and must not be processed.
type Effect struct {
	kind  Kind
	args  []any
	valid bool
}

// Make builds an effect of the given kind. It panics if kind is unknown.
func Make(kind Kind, args ...any) Effect {
	invariant.Check(kind.Valid(), "unsupported effect %v", kind)
	return Effect{kind: kind, args: append([]any(nil), args...), valid: true}
}

// Delay suspends the yielding task for d. Negative durations count as zero.
func Delay(d time.Duration) Effect { return Make(KindDelay, d) }

// Abort ends the yielding task as rejected with reason.
func Abort(reason error) Effect { return Make(KindAbort, reason) }

// Cancel ends the yielding task as cancelled with reason.
func Cancel(reason error) Effect { return Make(KindCancel, reason) }

// Kind returns the effect kind.
func (e Effect) Kind() Kind { return e.kind }

// Args returns a copy of the effect arguments.
func (e Effect) Args() []any { return append([]any(nil), e.args...) }

// IsZero reports whether e was not built by Make.
func (e Effect) IsZero() bool { return !e.valid }

func (e Effect) String() string { return e.kind.String() }

func (e Effect) duration() time.Duration {
	if len(e.args) == 0 {
		return 0
	}
	switch v := e.args[0].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	default:
		invariant.Check(false, "delay argument %T is not a duration", v)
		return 0
	}
}

func (e Effect) reason(fallback error) error {
	if len(e.args) == 0 || e.args[0] == nil {
		return fallback
	}
	switch v := e.args[0].(type) {
	case error:
		return v
	default:
		return fmt.Errorf("%v", v)
	}
}

// CancelSignal marks a failure caused by a Cancel effect.
type CancelSignal struct {
	Reason error
}

func (s *CancelSignal) Error() string { return "effect: cancel signal: " + s.Reason.Error() }

func (s *CancelSignal) Unwrap() error { return s.Reason }

// AsCancelSignal reports whether err carries a *CancelSignal.
func AsCancelSignal(err error) (*CancelSignal, bool) {
	var sig *CancelSignal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}

// Process resolves e into an outcome. A Delay returns early with ctx.Err()
// when ctx is done first. Processing the zero Effect panics.
func Process(ctx context.Context, e Effect) (any, error) {
	invariant.Check(!e.IsZero(), "zero Effect can not be processed")
	switch e.kind {
	case KindDelay:
		return nil, sleep(ctx, e.duration())
	case KindAbort:
		return nil, e.reason(ErrAborted)
	case KindCancel:
		return nil, &CancelSignal{Reason: e.reason(ErrCancelled)}
	}
	invariant.Check(false, "can not process effect %v", e)
	return nil, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
