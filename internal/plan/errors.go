package plan

import "errors"

// Plan lifecycle errors. Callers match them with errors.Is; the wrapped
// message carries the detail.
var (
	// ErrGenerationFailed means the remote generation call itself failed,
	// including timeouts and cancellation.
	ErrGenerationFailed = errors.New("plan generation failed")
	// ErrEmptyResponse means the call succeeded but returned no parseable content.
	ErrEmptyResponse = errors.New("plan generation returned no content")
	// ErrMalformedPlan means the response parsed but failed shape validation.
	ErrMalformedPlan = errors.New("malformed plan")
	// ErrInvalidStatus means a status outside pending, completed, missed.
	ErrInvalidStatus = errors.New("invalid task status")
)
