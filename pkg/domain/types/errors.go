package types

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared across layers. Wrapped with goerr at raise sites
// so call context travels with the sentinel.
var (
	// ErrRetrieval: vector index unreachable or timed out. Retryable.
	ErrRetrieval = goerr.New("vector index retrieval failed")

	// ErrGeneration: LLM call failed or timed out. Retryable, and no
	// partial draft is ever returned alongside it.
	ErrGeneration = goerr.New("draft generation failed")

	// ErrInvalidState: review attempted on a non-Pending event.
	ErrInvalidState = goerr.New("event is not pending")

	// ErrStaleState: a concurrent reviewer decided the event first.
	ErrStaleState = goerr.New("event state changed concurrently")

	// ErrPublishConsistency: article or index write failed mid-publish.
	// The publish path must roll back before surfacing this.
	ErrPublishConsistency = goerr.New("publish failed, changes rolled back")

	// ErrNotFound: the requested record does not exist.
	ErrNotFound = goerr.New("record not found")

	// ErrDuplicatePending: a Pending event already exists for the ticket.
	ErrDuplicatePending = goerr.New("pending event already exists for ticket")
)
