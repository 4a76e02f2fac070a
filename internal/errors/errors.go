// Package errors defines the two error kinds the attack pipeline distinguishes:
// fatal configuration/environment failures that abort the whole run, and
// per-attempt transport failures that are counted and otherwise ignored.
package errors

import "fmt"

// Killer is a fatal error: a configuration or environmental failure that
// invalidates every subsequent attempt. Surfaced to main, logged, exit 1.
type Killer struct {
	Detail string
	Cause  error
}

func (e *Killer) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Detail, e.Cause)
	}
	return e.Detail
}

func (e *Killer) Unwrap() error { return e.Cause }

// NewKiller builds a fatal error with no underlying cause.
func NewKiller(detail string) *Killer {
	return &Killer{Detail: detail}
}

// WrapKiller builds a fatal error around an underlying cause.
func WrapKiller(detail string, cause error) *Killer {
	return &Killer{Detail: detail, Cause: cause}
}

// IsKiller reports whether err is (or wraps) a fatal Killer error.
func IsKiller(err error) bool {
	var k *Killer
	return asKiller(err, &k)
}

func asKiller(err error, target **Killer) bool {
	for err != nil {
		if k, ok := err.(*Killer); ok {
			*target = k
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
