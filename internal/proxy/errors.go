package proxy

import "errors"

var (
	// ErrDuplicateHandle is returned when pending settings already exist for
	// a handle. The allocator never reuses handles, so hitting this means a
	// caller bypassed the create entry points.
	ErrDuplicateHandle = errors.New("proxy: pending settings already exist for handle")

	// ErrUnknownHandle is returned when a register call finds no pending
	// settings for its handle.
	ErrUnknownHandle = errors.New("proxy: no pending settings for handle")

	// ErrFrozen is returned by registration entry points after the registry
	// freeze point.
	ErrFrozen = errors.New("proxy: registries are frozen")

	// ErrDuplicateIdentifier is returned when a namespace:path is already
	// taken within a kind's registry.
	ErrDuplicateIdentifier = errors.New("proxy: identifier already registered")
)
