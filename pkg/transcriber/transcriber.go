// Package transcriber runs the encode, request and extract flow: a local audio
// file is inlined as a data URI into a [system, user] conversation, sent once,
// and the first content element of the first choice is returned.
package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/audio"
	"github.com/papercomputeco/earful/pkg/llm"
	"github.com/papercomputeco/earful/pkg/merkle"
)

// Caller sends a conversation request to an inference service.
type Caller interface {
	Call(ctx context.Context, req *llm.ConversationRequest) (*llm.ConversationResponse, error)
}

// Config holds the conversation settings.
type Config struct {
	Model        string
	Prompt       string
	SystemPrompt string

	// Provider is recorded with stored turns.
	Provider string

	Parameters *llm.Parameters
}

// Request overrides the configured prompt and model for one call.
type Request struct {
	Prompt string
	Model  string
}

// Result is a completed transcription.
type Result struct {
	// Content is choices[0].message.content[0].
	Content  llm.ContentPart
	Response *llm.ConversationResponse
	Model    string

	// HeadHash is the recorded assistant node, empty when not recorded.
	HeadHash string
}

// Text returns the text of the first content element.
func (r *Result) Text() string {
	return r.Content.Text
}

// Transcriber orchestrates encoding, the remote call and optional recording.
type Transcriber struct {
	config Config
	caller Caller
	storer merkle.Storer
	logger *zap.Logger
}

// New creates a Transcriber. storer may be nil to disable recording.
func New(config Config, caller Caller, storer merkle.Storer, logger *zap.Logger) *Transcriber {
	return &Transcriber{
		config: config,
		caller: caller,
		storer: storer,
		logger: logger,
	}
}

// BuildMessages returns the [system, user] conversation with the user content
// ordered [audio, text].
func BuildMessages(systemPrompt, dataURI, prompt string) []llm.Message {
	return []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: []llm.ContentPart{llm.TextPart(systemPrompt)},
		},
		{
			Role: llm.RoleUser,
			Content: []llm.ContentPart{
				llm.AudioPart(dataURI),
				llm.TextPart(prompt),
			},
		},
	}
}

// Transcribe encodes the file at path and submits it. Encoding failures return
// before any request is made.
func (t *Transcriber) Transcribe(ctx context.Context, path string, req Request) (*Result, error) {
	encoded, err := audio.EncodeFile(path)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("encoded audio file",
		zap.String("path", path),
		zap.Int("encoded_size", len(encoded)),
	)

	return t.send(ctx, audio.DataURI(audio.FormatFromPath(path), encoded), req)
}

// TranscribeBytes submits already loaded audio of the given format.
func (t *Transcriber) TranscribeBytes(ctx context.Context, data []byte, format string, req Request) (*Result, error) {
	encoded, err := audio.Encode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return t.send(ctx, audio.DataURI(format, encoded), req)
}

func (t *Transcriber) send(ctx context.Context, dataURI string, req Request) (*Result, error) {
	model := firstNonEmpty(req.Model, t.config.Model)
	prompt := firstNonEmpty(req.Prompt, t.config.Prompt)

	convReq := &llm.ConversationRequest{
		Model:      model,
		Messages:   BuildMessages(t.config.SystemPrompt, dataURI, prompt),
		Parameters: t.config.Parameters,
	}

	startTime := time.Now()
	resp, err := t.caller.Call(ctx, convReq)
	if err != nil {
		return nil, fmt.Errorf("conversation request failed: %w", err)
	}

	content, err := resp.FirstContent()
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", resp.RequestID, err)
	}
	if content.Text == "" {
		return nil, fmt.Errorf("request %s: %w", resp.RequestID, llm.ErrNoText)
	}

	t.logger.Info("transcription complete",
		zap.String("model", model),
		zap.String("request_id", resp.RequestID),
		zap.String("content_preview", ansi.Truncate(strings.ReplaceAll(content.Text, "\n", " "), 60, "...")),
		zap.Duration("duration", time.Since(startTime)),
	)

	result := &Result{
		Content:  content,
		Response: resp,
		Model:    model,
	}

	if t.storer != nil {
		headHash, err := t.record(ctx, llm.ConversationTurn{
			Provider: t.config.Provider,
			Request:  convReq,
			Response: resp,
		})
		if err != nil {
			// The transcription itself succeeded.
			t.logger.Error("failed to record transcription", zap.Error(err))
		} else {
			result.HeadHash = headHash
			t.logger.Debug("transcription recorded", zap.String("head_hash", ansi.Truncate(headHash, 16, "")))
		}
	}

	return result, nil
}

// record stores the request messages and the first choice as a chain of nodes
// and returns the hash of the assistant node.
func (t *Transcriber) record(ctx context.Context, turn llm.ConversationTurn) (string, error) {
	var parent *merkle.Node

	for _, msg := range turn.Request.Messages {
		node := merkle.NewNode(merkle.MessageBucket(msg, turn.Request.Model, turn.Provider), parent)
		if _, err := t.storer.Put(ctx, node); err != nil {
			return "", fmt.Errorf("storing message node: %w", err)
		}
		parent = node
	}

	bucket := merkle.MessageBucket(turn.Response.Output.Choices[0].Message, turn.Request.Model, turn.Provider)
	responseNode := merkle.NewNode(bucket, parent)
	if _, err := t.storer.Put(ctx, responseNode); err != nil {
		return "", fmt.Errorf("storing response node: %w", err)
	}

	return responseNode.Hash, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
