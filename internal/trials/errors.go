package trials

import "errors"

var (
	// ErrStorageConnection means the store could not be reached, a
	// transaction could not be started, or the id snapshot could not be read.
	ErrStorageConnection = errors.New("storage connection failed")

	// ErrStorageQuery means a statement in the batch or the commit failed.
	ErrStorageQuery = errors.New("storage query failed")
)
