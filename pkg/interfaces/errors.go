package interfaces

import "errors"

// ErrStoreDisabled is returned by read paths when no audit store is configured.
var ErrStoreDisabled = errors.New("audit store is disabled")
