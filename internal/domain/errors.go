package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrDraftNotFound   = errors.New("draft not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPlaceNotFound   = errors.New("address could not be located")
	ErrRouteUnserved   = errors.New("route is not served")
	ErrFareNotSelected = errors.New("service class and fare not selected")
	ErrStaleFare       = errors.New("selected fare no longer matches current trip details")
)

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation error"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// OrNil returns nil when nothing was added, so callers can return it as error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
