package server

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/transcriber"
)

const (
	mcpServerName   = "earful"
	mcpServerVer    = "0.1.0"
	transcribeTool  = "transcribe_audio"
	transcribeUsage = "Transcribe or describe a local audio file. The file is read by the earful server."
)

// TranscribeInput is the transcribe_audio tool input.
type TranscribeInput struct {
	Path   string `json:"path" jsonschema:"absolute path of the audio file on the server"`
	Prompt string `json:"prompt,omitempty" jsonschema:"question to ask about the audio"`
}

// TranscribeOutput is the transcribe_audio tool output.
type TranscribeOutput struct {
	Text      string `json:"text"`
	RequestID string `json:"request_id"`
}

// NewMCPServer returns an MCP server exposing the transcribe_audio tool.
func NewMCPServer(t Transcriber, logger *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    mcpServerName,
		Version: mcpServerVer,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        transcribeTool,
		Description: transcribeUsage,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in TranscribeInput) (*mcp.CallToolResult, TranscribeOutput, error) {
		path, err := cleanPath(in.Path)
		if err != nil {
			return nil, TranscribeOutput{}, err
		}

		logger.Debug("mcp transcribe", zap.String("path", path))

		result, err := t.Transcribe(ctx, path, transcriber.Request{Prompt: in.Prompt})
		if err != nil {
			logger.Error("mcp transcription failed", zap.String("path", path), zap.Error(err))
			return nil, TranscribeOutput{}, err
		}

		logger.Info("mcp transcription complete",
			zap.String("path", path),
			zap.String("content_preview", preview(result.Text())),
		)

		return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: result.Text()}},
			}, TranscribeOutput{
				Text:      result.Text(),
				RequestID: result.Response.RequestID,
			}, nil
	})

	return server
}

func newMCPHandler(t Transcriber, logger *zap.Logger) http.Handler {
	server := NewMCPServer(t, logger)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
