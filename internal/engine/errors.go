package engine

import "errors"

// Error taxonomy for the lifecycle engine. Every rejected operation returns
// exactly one of these classes, possibly wrapped with call-site context, and
// guarantees zero state mutation.
var (
	// ErrInvalidAddress a required identity argument was the zero address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrArgument a scalar argument violated a basic precondition
	// (zero quantity, past expiry, empty collection).
	ErrArgument = errors.New("invalid argument")

	// ErrRoleCheckFailed a named account lacks a required role.
	ErrRoleCheckFailed = errors.New("role check failed")

	// ErrUnauthorizedActor caller is not the specific account authorized
	// for this action.
	ErrUnauthorizedActor = errors.New("unauthorized actor")

	// ErrInvalidStateForAction the batch's current status forbids the
	// requested transition.
	ErrInvalidStateForAction = errors.New("invalid state for action")

	// ErrInvalidStateTransition the store-level double check rejected a
	// transition (defense in depth against out-of-band mutation).
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrReceiverMismatch supplied receiver/destination does not match the
	// batch's recorded expectation.
	ErrReceiverMismatch = errors.New("receiver mismatch")

	// ErrInvalidReceiverRole receiver lacks the role appropriate to the
	// next stage.
	ErrInvalidReceiverRole = errors.New("invalid receiver role")

	// ErrRawMaterialValidation an input raw-material batch failed
	// type/status/ownership checks during medicine creation.
	ErrRawMaterialValidation = errors.New("raw material validation failed")

	// ErrAlreadyDestroyed idempotency guard on destroying a raw material
	// batch twice.
	ErrAlreadyDestroyed = errors.New("batch already destroyed")

	// ErrAlreadyDestroyedOrFinalized idempotency guard on terminal-state
	// medicine actions.
	ErrAlreadyDestroyedOrFinalized = errors.New("batch already destroyed or finalized")

	// ErrBatchTypeUnknown the batch id is not present in the type registry.
	ErrBatchTypeUnknown = errors.New("unknown batch type")

	// ErrNotFound query against an unregistered batch id.
	ErrNotFound = errors.New("batch not found")
)
