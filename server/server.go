// Package server exposes transcription over HTTP and MCP, and lets recorded
// conversations be inspected.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/audio"
	"github.com/papercomputeco/earful/pkg/dashscope"
	"github.com/papercomputeco/earful/pkg/llm"
	"github.com/papercomputeco/earful/pkg/merkle"
	"github.com/papercomputeco/earful/pkg/transcriber"
)

// Transcriber is the transcription backend used by the server.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, req transcriber.Request) (*transcriber.Result, error)
	TranscribeBytes(ctx context.Context, data []byte, format string, req transcriber.Request) (*transcriber.Result, error)
}

// Server serves the earful HTTP API.
type Server struct {
	config      Config
	transcriber Transcriber
	storer      merkle.Storer
	logger      *zap.Logger
	app         *fiber.App
}

// TranscribeResponse is returned by POST /api/transcribe.
type TranscribeResponse struct {
	Text      string `json:"text"`
	Model     string `json:"model"`
	RequestID string `json:"request_id"`
	HeadHash  string `json:"head_hash,omitempty"`
}

// New creates a Server. storer may be nil, in which case the /tapes routes
// report that recording is disabled.
func New(config Config, t Transcriber, storer merkle.Storer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.MaxUploadBytes,
	})

	s := &Server{
		config:      config,
		transcriber: t,
		storer:      storer,
		logger:      logger,
		app:         app,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Post("/api/transcribe", s.handleTranscribe)

	tapes := app.Group("/tapes", s.requireStorer)
	tapes.Get("/stats", s.handleStats)
	tapes.Get("/node/:hash", s.handleGetNode)
	tapes.Get("/history", s.handleListHistories)
	tapes.Get("/history/:hash", s.handleGetHistory)

	app.All("/mcp", adaptor.HTTPHandler(newMCPHandler(t, logger)))

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("listen", s.config.ListenAddr))
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(l net.Listener) error {
	s.logger.Info("starting server", zap.String("listen", l.Addr().String()))
	return s.app.Listener(l)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleTranscribe transcribes a multipart upload: "file" (required),
// "prompt" and "model" (optional).
func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "file field required"})
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "unreadable upload"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("failed to read upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "unreadable upload"})
	}

	s.logger.Debug("received upload",
		zap.String("filename", fh.Filename),
		zap.Int("size", len(data)),
	)

	result, err := s.transcriber.TranscribeBytes(c.UserContext(), data, audio.FormatFromPath(fh.Filename), transcriber.Request{
		Prompt: c.FormValue("prompt"),
		Model:  c.FormValue("model"),
	})
	if err != nil {
		return s.upstreamError(c, err)
	}

	return c.JSON(TranscribeResponse{
		Text:      result.Text(),
		Model:     result.Model,
		RequestID: result.Response.RequestID,
		HeadHash:  result.HeadHash,
	})
}

func (s *Server) upstreamError(c *fiber.Ctx, err error) error {
	s.logger.Error("transcription failed", zap.Error(err))

	switch {
	case dashscope.IsAuthError(err):
		return c.Status(fiber.StatusUnauthorized).JSON(llm.ErrorResponse{Error: "upstream authentication failed"})
	case errors.Is(err, llm.ErrNoChoices), errors.Is(err, llm.ErrEmptyContent), errors.Is(err, llm.ErrNoText):
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream returned no content"})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
}

func (s *Server) requireStorer(c *fiber.Ctx) error {
	if s.storer == nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "recording is disabled"})
	}
	return c.Next()
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	nodes, err := s.storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list nodes"})
	}

	roots, err := s.storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get roots"})
	}

	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	return c.JSON(map[string]any{
		"total_nodes": len(nodes),
		"root_count":  len(roots),
		"leaf_count":  len(leaves),
	})
}

func (s *Server) handleGetNode(c *fiber.Ctx) error {
	node, err := s.storer.Get(c.UserContext(), c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(node)
}

// HistoryResponse contains the conversation history for a given node.
type HistoryResponse struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	HeadHash string           `json:"head_hash"`
	Depth    int              `json:"depth"`
}

// HistoryMessage represents a message in the conversation history.
type HistoryMessage struct {
	Hash       string            `json:"hash"`
	ParentHash *string           `json:"parent_hash,omitempty"`
	Role       string            `json:"role"`
	Content    []llm.ContentPart `json:"content"`
	Model      string            `json:"model,omitempty"`
	Provider   string            `json:"provider,omitempty"`
}

func (s *Server) handleListHistories(c *fiber.Ctx) error {
	ctx := c.UserContext()

	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	histories := make([]HistoryResponse, 0, len(leaves))
	for _, leaf := range leaves {
		history, err := s.buildHistory(ctx, leaf.Hash)
		if err != nil {
			s.logger.Warn("failed to build history for leaf", zap.String("hash", leaf.Hash), zap.Error(err))
			continue
		}
		histories = append(histories, *history)
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	history, err := s.buildHistory(c.UserContext(), c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(history)
}

func (s *Server) buildHistory(ctx context.Context, hash string) (*HistoryResponse, error) {
	// Ancestry is newest first.
	ancestry, err := s.storer.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}

	messages := make([]HistoryMessage, len(ancestry))
	for i, node := range ancestry {
		messages[len(ancestry)-1-i] = HistoryMessage{
			Hash:       node.Hash,
			ParentHash: node.ParentHash,
			Role:       node.Bucket.Role,
			Content:    node.Bucket.Content,
			Model:      node.Bucket.Model,
			Provider:   node.Bucket.Provider,
		}
	}

	return &HistoryResponse{
		Messages: messages,
		HeadHash: hash,
		Depth:    len(messages),
	}, nil
}

func preview(s string) string {
	return ansi.Truncate(strings.ReplaceAll(s, "\n", " "), 60, "...")
}

func cleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("path must be absolute: %s", p)
	}
	return filepath.Clean(p), nil
}
