package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrDuplicate: a uniqueness constraint (email, mobile, donor id) was hit
// - ErrInvalidState: record in wrong workflow state for the requested update
// - ErrAlreadyResponded: donor already has a decision recorded on a request
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyResponded = errors.New("already responded")
	ErrUnavailable      = errors.New("unavailable")
)
