package llm

// ConversationRequest is a multimodal conversation request.
type ConversationRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	// Generation options
	Parameters *Parameters `json:"parameters,omitempty"`

	// APIKey overrides the client's credential for this request. Never serialized.
	APIKey string `json:"-"`
}
