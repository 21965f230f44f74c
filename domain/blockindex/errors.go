package blockindex

import "github.com/pkg/errors"

var (
	// ErrUnknownParent is returned for a header whose parent is not in the
	// index.
	ErrUnknownParent = errors.New("header's parent is unknown")

	// ErrForkNotSupported is returned for a header that conflicts with a
	// header already in the chain. Only a single chain is supported.
	ErrForkNotSupported = errors.New("header conflicts with the header chain")

	// ErrBlockNotFound is returned when a block body isn't stored.
	ErrBlockNotFound = errors.New("block not found")
)
