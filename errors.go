package dfr

import (
	"errors"

	"github.com/zeebo/errs"
)

// Error is the class of every error returned by this package.
var Error = errs.Class("dfr")

// ErrRegistryFull is returned by the Defer functions when the Registry already
// holds Options.MaxSlots slots.
var ErrRegistryFull = errors.New("registry full")
