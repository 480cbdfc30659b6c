package llm

// ConversationResponse is the result of a multimodal conversation call.
type ConversationResponse struct {
	RequestID string `json:"request_id"`
	Output    Output `json:"output"`
	Usage     Usage  `json:"usage"`
}

// Output holds the generated choices.
type Output struct {
	Choices []Choice `json:"choices"`
}

// Choice is one generated alternative.
type Choice struct {
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// Usage reports token accounting for the call.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	AudioTokens  int `json:"audio_tokens,omitempty"`
}

// FirstContent returns choices[0].message.content[0].
func (r *ConversationResponse) FirstContent() (ContentPart, error) {
	if r == nil || len(r.Output.Choices) == 0 {
		return ContentPart{}, ErrNoChoices
	}

	content := r.Output.Choices[0].Message.Content
	if len(content) == 0 {
		return ContentPart{}, ErrEmptyContent
	}

	return content[0], nil
}
