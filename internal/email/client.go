package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const DefaultResendBaseURL = "https://api.resend.com"

var ErrNotConfigured = errors.New("email client is not configured")

type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendClient sends mail through the Resend HTTP API.
type ResendClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewResendClient(apiKey, baseURL string) *ResendClient {
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}
	return &ResendClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *ResendClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "email"),
		zap.String("method", "Send"),
		zap.String("subject", msg.Subject),
	)

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("email request failed", zap.Error(err))
		return "", fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		log.Error("email rejected", zap.Int("status", resp.StatusCode), zap.String("error", apiErr.Message))
		return "", fmt.Errorf("resend error: %s", apiErr.Message)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode email response: %w", err)
	}

	log.Info("email sent", zap.String("email_id", out.ID))
	return out.ID, nil
}
