// Package dashscope is a client for the DashScope multimodal conversation API.
// One call is one POST: there are no retries and no timeout beyond what the
// caller's context and the transport impose.
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/llm"
)

const (
	// DefaultBaseURL is the public DashScope API endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"

	// ProviderName identifies this backend in recorded turns.
	ProviderName = "dashscope"

	generationPath = "/services/aigc/multimodal-generation/generation"
)

// Config is the client configuration.
type Config struct {
	// BaseURL of the API (e.g., "https://dashscope.aliyuncs.com/api/v1")
	BaseURL string

	// APIKey is sent as a bearer token. A request may override it.
	APIKey string

	// HTTPClient defaults to a client with no timeout.
	HTTPClient *http.Client
}

// Client sends conversation requests to DashScope.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

type generationRequest struct {
	Model      string          `json:"model"`
	Input      generationInput `json:"input"`
	Parameters *llm.Parameters `json:"parameters,omitempty"`
}

type generationInput struct {
	Messages []llm.Message `json:"messages"`
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		config:     config,
		logger:     logger,
		httpClient: httpClient,
	}
}

// Call submits req and returns the decoded response.
func (c *Client) Call(ctx context.Context, req *llm.ConversationRequest) (*llm.ConversationResponse, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.config.APIKey
	}
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	reqBody, err := json.Marshal(generationRequest{
		Model:      req.Model,
		Input:      generationInput{Messages: req.Messages},
		Parameters: req.Parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + generationPath
	c.logger.Debug("sending conversation request",
		zap.String("url", url),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, decodeError(httpResp.StatusCode, body)
	}

	var resp llm.ConversationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.logger.Debug("received conversation response",
		zap.String("request_id", resp.RequestID),
		zap.Int("choices", len(resp.Output.Choices)),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &resp, nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = ""
		apiErr.Body = ansi.Truncate(strings.TrimSpace(string(body)), 512, "...")
	}
	return apiErr
}
