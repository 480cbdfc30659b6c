package llm

// ConversationTurn is one transcription request and its response, the unit recorded in the DAG.
type ConversationTurn struct {
	Provider string                `json:"provider"`
	Request  *ConversationRequest  `json:"request"`
	Response *ConversationResponse `json:"response"`
}
