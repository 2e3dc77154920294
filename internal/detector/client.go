// Package detector asks an external classifier how likely a text was written by a model.
package detector

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/spigell/ai-recruiter/internal/utils"
	"go.uber.org/zap"
)

const (
	// MaxTextLength is the longest text, in runes, sent to the classifier.
	MaxTextLength = 5000
	// MaxScore is the top of the classifier's scale.
	MaxScore = 5.0

	defaultTimeout = 10 * time.Second
)

// Client calls the classifier's /detect endpoint. Failures never surface to
// the caller: they are logged and reported as probability zero.
type Client struct {
	url    string
	client *resty.Client
	logger *zap.Logger
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

func New(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	url = strings.TrimRight(strings.TrimSpace(url), "/")
	return &Client{
		url: url,
		client: resty.New().
			SetBaseURL(url).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

// Probability returns the classifier score scaled to [0, 1].
func (c *Client) Probability(ctx context.Context, text string) float64 {
	text = Sanitize(text)
	if text == "" || c.url == "" {
		return 0
	}

	result, err := c.detect(ctx, text)
	if err != nil {
		c.logger.Warn("ai detection failed", zap.Error(err), zap.String("text_preview", utils.TruncateForLog(text, 80)))
		return 0
	}

	probability := result.Score / MaxScore
	switch {
	case probability < 0:
		probability = 0
	case probability > 1:
		probability = 1
	}

	c.logger.Debug("ai detection", zap.Float64("score", result.Score), zap.String("label", result.Label))
	return probability
}

func (c *Client) detect(ctx context.Context, text string) (detectResponse, error) {
	var result detectResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(detectRequest{Text: text}).
		SetResult(&result).
		// Some classifiers answer with text/plain; the body is JSON regardless.
		ForceContentType("application/json").
		Post("/detect")
	if err != nil {
		return detectResponse{}, fmt.Errorf("detector request failed: %w", err)
	}
	if resp.IsError() {
		return detectResponse{}, fmt.Errorf("detector returned status %d", resp.StatusCode())
	}
	return result, nil
}

// Sanitize drops control characters, folds line breaks and other whitespace
// runs into single spaces and truncates to MaxTextLength runes.
func Sanitize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, text)

	cleaned = strings.Join(strings.Fields(cleaned), " ")

	runes := []rune(cleaned)
	if len(runes) > MaxTextLength {
		cleaned = strings.TrimSpace(string(runes[:MaxTextLength]))
	}
	return cleaned
}
