package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-3-flash-preview"

	// One request every 2s with a small burst keeps a free-tier key under
	// its quota across concurrent games.
	outboundRateLimit = rate.Limit(0.5)
	outboundBurst     = 3
)

// RateLimitError reports an upstream 429 that carried a usable retry delay.
// The engine reschedules the whole AI turn after RetryAfter instead of
// falling back.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// GeminiResponder calls the generative-language REST API.
type GeminiResponder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
}

func NewGeminiResponder(apiKey, model string) *GeminiResponder {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiResponder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(outboundRateLimit, outboundBurst),
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

// Respond sends the prompt and returns the first candidate's text. A 429
// with a suggested delay comes back as *RateLimitError; everything else is a
// plain error, which the caller treats as terminal for the attempt.
func (r *GeminiResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("responder disabled: no api key configured")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", r.baseURL, r.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	parsed := generateContentResponse{}
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("malformed responder payload: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if delay, ok := retryDelay(resp, &parsed); ok {
			return "", &RateLimitError{RetryAfter: delay}
		}
		return "", fmt.Errorf("responder rate limited without retry delay")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("responder returned status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no text content in responder reply")
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content in responder reply")
	}
	return text, nil
}

// retryDelay extracts the suggested delay from a 429, preferring the
// RetryInfo detail ("17s") over the Retry-After header.
func retryDelay(resp *http.Response, parsed *generateContentResponse) (time.Duration, bool) {
	if parsed.Error != nil {
		for _, d := range parsed.Error.Details {
			if !strings.HasSuffix(d.Type, "RetryInfo") || d.RetryDelay == "" {
				continue
			}
			if dur, err := time.ParseDuration(d.RetryDelay); err == nil && dur > 0 {
				return dur, true
			}
		}
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}
