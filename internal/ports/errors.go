package ports

import "errors"

// ErrNotFound is wrapped by adapters when a keyed lookup matches nothing.
var ErrNotFound = errors.New("not found")
