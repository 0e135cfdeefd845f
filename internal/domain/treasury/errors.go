package treasury

import "errors"

// Sentinel errors surfaced by the reconciliation engine. Callers branch with
// errors.Is; everything else is wrapped storage or classifier failure.
var (
	// ErrInvalidTransition signals a lifecycle violation, e.g. confirming a
	// pending item or manually reconciling a confirmed one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrItemNotFound signals an unknown reconciliation item ID.
	ErrItemNotFound = errors.New("reconciliation item not found")

	// ErrCandidateNotFound signals an unknown reference record ID.
	ErrCandidateNotFound = errors.New("reference record not found")
)
