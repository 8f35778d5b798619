// Package repair fixes garbled merchant records through an LLM endpoint.
// Repairs are rationed per scrape batch; extraction must never depend on the
// repairer being configured.
package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mzohaib/bankdealworker/helpers"
	"mzohaib/bankdealworker/logger"
	apperrors "mzohaib/bankdealworker/pkg/errors"
)

const defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// Repaired is the cleaned-up version of a garbled scraped record
type Repaired struct {
	MerchantName string `json:"merchant_name"`
	Category     string `json:"category"`
	City         string `json:"city"`
	Conditions   string `json:"conditions"`
}

// TextRepairer turns a garbled scraped record into a clean one
type TextRepairer interface {
	Repair(ctx context.Context, bankName, raw string) (Repaired, error)
}

// GroqRepairer implements TextRepairer against the Groq chat completions API
type GroqRepairer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewGroqRepairer creates a Groq-backed repairer. Returns nil when no API key
// is configured, which disables repair entirely.
func NewGroqRepairer(apiKey, model string) *GroqRepairer {
	if apiKey == "" {
		return nil
	}
	return &GroqRepairer{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.ForComponent("repair"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Repair asks the model to reconstruct a clean record from a garbled scraped
// line. The response must be a single JSON object.
func (g *GroqRepairer) Repair(ctx context.Context, bankName, raw string) (Repaired, error) {
	prompt := fmt.Sprintf(
		"A scraper extracted this garbled bank discount text from %s:\n%q\n\n"+
			"Reconstruct the record. Respond with one JSON object with keys "+
			"merchant_name, category, city, conditions. Use empty strings for "+
			"fields you cannot recover.",
		bankName, raw,
	)

	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You output JSON only."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Repaired{}, apperrors.NewPayloadError("repair", "failed to encode request", err)
	}

	var parsed chatResponse
	err = helpers.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("repair endpoint returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return Repaired{}, apperrors.NewNetworkError("repair", "repair request failed", err)
	}

	if len(parsed.Choices) == 0 {
		return Repaired{}, apperrors.NewPayloadError("repair", "repair response had no choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var repaired Repaired
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &repaired); err != nil {
		return Repaired{}, apperrors.NewPayloadError("repair", "repair response was not valid JSON", err)
	}
	return repaired, nil
}
