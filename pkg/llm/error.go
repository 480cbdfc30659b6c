// Package llm provides the internal representations of multimodal conversation
// requests and responses exchanged with the inference API.
package llm

import "errors"

// ErrorResponse is the error body returned by the earful HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

var (
	// ErrNoChoices is returned when a response carries no choices, for example
	// when the upstream filtered the output.
	ErrNoChoices = errors.New("response contains no choices")

	// ErrEmptyContent is returned when the first choice has no content parts.
	ErrEmptyContent = errors.New("first choice has no content")

	// ErrNoText is returned when the first content element is not text, or is
	// empty text.
	ErrNoText = errors.New("first content element has no text")
)
