// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"

	"github.com/gdkgo/glctx/driver"
)

var (
	// ErrNotAvailable is returned when no backend could be initialized.
	ErrNotAvailable = errors.New("graphics backend not available")
	// ErrUnsupportedFormat is returned when no pixel format matches.
	ErrUnsupportedFormat = errors.New("no suitable pixel format")
	// ErrUnsupportedProfile is returned for requests the backend or the
	// shared context cannot satisfy.
	ErrUnsupportedProfile = errors.New("unsupported context profile")
	// ErrCreationFailed is returned when every creation attempt failed.
	ErrCreationFailed = errors.New("context creation failed")
	// ErrAlreadyConfigured is returned when a window already has a pixel
	// format.
	ErrAlreadyConfigured = errors.New("pixel format already set")
	// ErrFrameState is returned for frame calls made out of order.
	ErrFrameState = errors.New("invalid frame state")
	// ErrReleased is returned by methods of released contexts and closed
	// displays.
	ErrReleased = errors.New("context released")
)

// Error describes a failed operation. It matches its Kind and the
// underlying native error with errors.Is.
type Error struct {
	Op   string
	API  driver.API
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.API != driver.APINone {
		msg = e.API.String() + ": " + msg
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, api driver.API, kind, err error) error {
	return &Error{Op: op, API: api, Kind: kind, Err: err}
}

func errorf(op string, api driver.API, kind error, format string, args ...any) error {
	return newError(op, api, kind, fmt.Errorf(format, args...))
}
