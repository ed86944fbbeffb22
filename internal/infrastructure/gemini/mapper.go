package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// Wire shapes for the generateContent REST API.
type generateContentRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// materialsPayload is the JSON contract the extraction prompt asks for.
// Numeric fields stay raw because the model sometimes quotes them.
type materialsPayload struct {
	Materials []materialRow `json:"materials"`
}

type materialRow struct {
	Name        string          `json:"name"`
	MarketPrice json.RawMessage `json:"market_price"`
	Qty         json.RawMessage `json:"qty"`
	Unit        string          `json:"unit"`
}

// candidateText pulls the text of the first candidate out of a
// generateContent response body.
func candidateText(body []byte) (string, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrRecognitionPayload, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", domain.ErrRecognitionPayload)
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// parseMaterials decodes the model's materials JSON into extracted items.
// Markdown fences around the JSON are tolerated; anything else that fails
// to decode is a payload error.
func parseMaterials(text string) ([]domain.ExtractedItem, error) {
	cleaned := stripJSONFences(text)

	var payload materialsPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionPayload, err)
	}

	items := make([]domain.ExtractedItem, 0, len(payload.Materials))
	for _, m := range payload.Materials {
		items = append(items, domain.ExtractedItem{
			Name:        strings.TrimSpace(m.Name),
			MarketPrice: coerceAmount(m.MarketPrice),
			Quantity:    coerceAmount(m.Qty),
			Unit:        strings.TrimSpace(m.Unit),
		})
	}
	return items, nil
}

// stripJSONFences removes the ```json ... ``` markdown fences the model
// tends to wrap around its output despite the prompt asking for bare JSON.
func stripJSONFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

// coerceAmount parses a numeric field the model may render as a number, a
// quoted string, or garbage. Failures coerce to zero. Negative values pass
// through unchanged so downstream validation can count the item as skipped.
func coerceAmount(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
