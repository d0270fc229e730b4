package validate

import "sync/atomic"

// Flag is a one-shot, monotonic cancellation signal. A controller raises
// it once; the validator polls it between rows and exits cooperatively,
// leaving the report consistent. A raised flag never resets.
//
// The zero value is ready to use. All methods are safe for concurrent
// use, and Raised is nil-safe so validators can poll an absent flag.
type Flag struct {
	raised atomic.Bool
}

// Raise sets the flag. Raising an already-raised flag is a no-op.
func (f *Flag) Raise() {
	f.raised.Store(true)
}

// Raised reports whether the flag has been raised.
func (f *Flag) Raised() bool {
	return f != nil && f.raised.Load()
}
