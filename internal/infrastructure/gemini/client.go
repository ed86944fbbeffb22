package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/yumikyo/proposal-g/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Generative Language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-1.5-flash"

	// maxAttempts bounds retries for transient failures.
	maxAttempts = 3

	// maxResponseBytes caps how much of a response body is read into memory.
	maxResponseBytes = 1 << 20
)

// Client calls the Gemini generateContent API to extract ingredients from
// menu photos. Implements domain.RecognitionClient.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a Gemini API client. Empty model or baseURL fall back
// to the defaults.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Free-tier Gemini allows 15 requests per minute
	// rate.Limit is requests per second, so 15/60 = 0.25 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.25), 8) // burst of 8 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiKey:      apiKey,
		model:       model,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles verbose request/response logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// ExtractIngredients sends a menu photo to the generateContent endpoint and
// returns the ingredient list the model extracted.
func (c *Client) ExtractIngredients(ctx context.Context, image []byte, mimeType string) ([]domain.ExtractedItem, error) {
	if c.apiKey == "" {
		return nil, domain.ErrRecognizerNotConfigured
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidRequest)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	log.Printf("[GEMINI] ExtractIngredients called: %d bytes, %s", len(image), mimeType)

	payload := generateContentRequest{
		Contents: []requestContent{
			{
				Parts: []requestPart{
					{Text: extractionPrompt},
					{InlineData: &inlineData{
						MIMEType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
		GenerationConfig: &generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 2048,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	// Build request URL
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	params := url.Values{}
	params.Add("key", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[GEMINI] Rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL, body)
		if err != nil {
			log.Printf("[GEMINI] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		respBody, err := readLimitedBody(resp.Body, maxResponseBytes)
		resp.Body.Close()
		if err != nil {
			log.Printf("[GEMINI] Body read error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		c.debugLog("response (attempt %d) status=%d body=%s", attempt, resp.StatusCode, string(respBody))

		// Retry on 429 and 5xx; other non-200 statuses are terminal.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			log.Printf("[GEMINI] API error (attempt %d) - Status: %d", attempt, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
			} else {
				lastErr = fmt.Errorf("%w: status %d", domain.ErrRecognitionUnavailable, resp.StatusCode)
			}
			time.Sleep(exponentialBackoff(attempt))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrRecognitionUnavailable, resp.StatusCode, string(respBody))
		}

		text, err := candidateText(respBody)
		if err != nil {
			return nil, err
		}

		items, err := parseMaterials(text)
		if err != nil {
			return nil, err
		}

		log.Printf("[GEMINI] Extracted %d ingredients", len(items))
		return items, nil
	}

	log.Printf("[GEMINI] All retries failed")
	return nil, lastErr
}

// doRequest executes an HTTP POST request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "proposal-g/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, err)
	}

	return resp, nil
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[GEMINI] "+format, args...)
	}
}

// exponentialBackoff returns the wait before the next retry: 500ms, 1s, 2s.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes of a response body.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
