package common

import "errors"

// Failure taxonomy for the retrieval pipeline. Callers match these with
// errors.Is; call sites wrap them with additional detail via fmt.Errorf and %w.
var (
	// ErrIndexUnavailable means the vector index backing store could not be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable means the embedding service could not be reached
	// or failed to embed the input.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractionUnavailable means the entity extraction service could not be reached.
	ErrExtractionUnavailable = errors.New("extraction service unavailable")

	// ErrRetrievalUnavailable means a retrieval call failed as a whole, as
	// opposed to losing individual sub-lookups.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrStrategyParse means the strategy classification response could not be
	// parsed into a known retrieval strategy.
	ErrStrategyParse = errors.New("unparseable strategy response")

	// ErrSynthesis means the final answer response did not match the expected
	// structured shape.
	ErrSynthesis = errors.New("unparseable synthesis response")

	// ErrMalformedRecord marks a single bad persisted record. It is logged and
	// skipped during graph construction, never propagated.
	ErrMalformedRecord = errors.New("malformed record")
)
