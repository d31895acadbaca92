// Package registry holds clients for the national registries the skjema
// API depends on: Enhetsregisteret (EREG) for organizations and
// Folkeregisteret via PDL for persons.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/melosys/skjema-api/pkg/logger"
)

// EregClient looks up organizations in Enhetsregisteret
type EregClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewEregClient creates a new EREG client
func NewEregClient(baseURL string, log *logger.Logger) *EregClient {
	return &EregClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

// Organisasjon is the subset of the EREG unit we care about
type Organisasjon struct {
	Organisasjonsnummer string `json:"organisasjonsnummer"`
	Navn                string `json:"navn"`
}

// Finnes reports whether the organization number is registered.
// Implements the register lookup the organization number validator needs:
// 404 means not registered, anything else but 200 is a lookup failure.
func (c *EregClient) Finnes(ctx context.Context, orgnr string) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/organisasjon/"+orgnr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to call ereg: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		c.logger.Error().Int("status", resp.StatusCode).Msg("ereg lookup failed")
		return false, fmt.Errorf("ereg lookup failed with status %d", resp.StatusCode)
	}
}

// Hent fetches the organization unit
func (c *EregClient) Hent(ctx context.Context, orgnr string) (*Organisasjon, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/organisasjon/"+orgnr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ereg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ereg lookup failed with status %d", resp.StatusCode)
	}

	var org Organisasjon
	if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &org, nil
}
