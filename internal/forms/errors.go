package forms

import "errors"

// ErrUnknownForm is returned when no form is registered under a key
var ErrUnknownForm = errors.New("unknown form")
