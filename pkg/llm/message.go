package llm

import "strings"

// Message roles understood by the conversation API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentPart is a single element of a message's content.
// Exactly one of Text or Audio is set.
type ContentPart struct {
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"` // data URI or URL
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Text: text}
}

// AudioPart returns an audio content part referencing uri.
func AudioPart(uri string) ContentPart {
	return ContentPart{Audio: uri}
}

// IsAudio reports whether the part references audio.
func (p ContentPart) IsAudio() bool {
	return p.Audio != ""
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if p.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
