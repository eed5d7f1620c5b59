package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyCatalog indicates the upstream responded but the normalized
// catalog contained no usable entries. An empty catalog is never cached.
var ErrEmptyCatalog = errors.New("systems catalog is empty or invalid")

// UnavailableError indicates the catalog upstream could not be reached or
// answered with a non-2xx status.
type UnavailableError struct {
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("unable to fetch systems catalog from %s (status %d)", e.URL, e.Status)
	}
	return fmt.Sprintf("unable to fetch systems catalog from %s: %v", e.URL, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
