package merkle

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/papercomputeco/earful/pkg/llm"
)

// AudioDigestPrefix marks audio parts whose payload was replaced by its digest.
const AudioDigestPrefix = "sha256:"

// Bucket is the content stored in a node: one message of a conversation.
type Bucket struct {
	Type     string            `json:"type"`
	Role     string            `json:"role"`
	Content  []llm.ContentPart `json:"content"`
	Model    string            `json:"model,omitempty"`
	Provider string            `json:"provider,omitempty"`
}

// Text returns the text parts of the bucket joined by newlines.
func (b Bucket) Text() string {
	return llm.Message{Role: b.Role, Content: b.Content}.Text()
}

// MessageBucket converts a message to a bucket. Inline audio is replaced by a
// digest of the data URI so recordings stay small and identical uploads share
// a hash.
func MessageBucket(msg llm.Message, model, provider string) Bucket {
	content := make([]llm.ContentPart, len(msg.Content))
	for i, part := range msg.Content {
		if part.IsAudio() {
			sum := sha256.Sum256([]byte(part.Audio))
			part = llm.AudioPart(AudioDigestPrefix + hex.EncodeToString(sum[:]))
		}
		content[i] = part
	}

	return Bucket{
		Type:     "message",
		Role:     msg.Role,
		Content:  content,
		Model:    model,
		Provider: provider,
	}
}
