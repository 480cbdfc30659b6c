package llm

// Parameters contains model inference parameters.
// Unset fields are omitted and the service defaults apply.
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	TopK        *int     `json:"top_k,omitempty"`
	Seed        *int     `json:"seed,omitempty"`       // Random seed for reproducibility
	MaxTokens   *int     `json:"max_tokens,omitempty"` // Max tokens to generate
}
