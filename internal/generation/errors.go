package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the refinement loop exhausts its
	// attempt budget without a single usable result.
	ErrGenerationFailed = errors.New("failed to generate artifact")

	// ErrInvalidResponse is returned when model output cannot be parsed or
	// fails per-type validation.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrEmptyPrompt is returned when there is no content to generate from.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrUnresolvedToken is returned when a rendered prompt template still
	// contains a placeholder token, which must never reach the API.
	ErrUnresolvedToken = errors.New("unresolved template token in prompt")
)
