package gpuverify

import (
	"errors"
	"fmt"
)

// Precondition violations. Verify panics with a *PreconditionError
// wrapping one of these when the tree breaks a guarantee of the lowering
// pipeline.
var (
	// ErrNonConstantExtent is reported for a thread_extent attribute whose
	// value is not a constant integer.
	ErrNonConstantExtent = errors.New("gpuverify: thread_extent value is not a constant integer")

	// ErrMalformedAttr is reported for an attribute whose node or value has
	// the wrong kind for its key.
	ErrMalformedAttr = errors.New("gpuverify: malformed attribute")
)

// PreconditionError describes the attribute that aborted a verification.
type PreconditionError struct {
	Key    string // attribute key
	Entity string // name of the attached variable, if any
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%v (attr %s)", e.Err, e.Key)
	}
	return fmt.Sprintf("%v (attr %s on %s)", e.Err, e.Key, e.Entity)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// AsPrecondition converts a value recovered from a Verify panic into the
// *PreconditionError it carries. Other panic values are not converted.
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        pe, ok := gpuverify.AsPrecondition(r)
//	        if !ok {
//	            panic(r)
//	        }
//	        err = pe
//	    }
//	}()
func AsPrecondition(r any) (*PreconditionError, bool) {
	pe, ok := r.(*PreconditionError)
	return pe, ok
}
