// Package arkiv holds the client for the archive service that creates
// journal entries for submitted forms.
package arkiv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/melosys/skjema-api/pkg/logger"
)

// Client journals submitted forms in the archive
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new archive client
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log,
	}
}

// JournalfoerRequest is the archive request for one submitted form
type JournalfoerRequest struct {
	SkjemaID       string          `json:"skjemaId"`
	Skjematype     string          `json:"skjematype"`
	Eier           string          `json:"eier"`
	KorrelasjonsID string          `json:"korrelasjonsId"`
	Innhold        json.RawMessage `json:"innhold"`
}

// Journalfoer archives the submission and returns the journal entry ID.
// The archive deduplicates on korrelasjonsId, so retrying a previously
// archived submission returns the same journalpost.
func (c *Client) Journalfoer(ctx context.Context, req *JournalfoerRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/journalpost", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().
		Str("skjema_id", req.SkjemaID).
		Str("korrelasjons_id", req.KorrelasjonsID).
		Msg("journaling submission")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call arkiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Interface("error", errResp).
			Msg("journaling failed")
		return "", fmt.Errorf("journaling failed with status %d: %v", resp.StatusCode, errResp)
	}

	var response struct {
		JournalpostID string `json:"journalpostId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.JournalpostID == "" {
		return "", fmt.Errorf("arkiv returned empty journalpost id")
	}

	return response.JournalpostID, nil
}
