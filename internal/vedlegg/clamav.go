// Package vedlegg holds attachment infrastructure: the virus scanner
// client and the attachment byte store.
package vedlegg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/melosys/skjema-api/pkg/logger"
)

// Skanner checks uploaded bytes before they are stored
type Skanner interface {
	Skann(ctx context.Context, filnavn string, innhold []byte) (SkannResultat, error)
}

// SkannResultat is the virus scan verdict
type SkannResultat string

const (
	SkannResultatOK       SkannResultat = "OK"
	SkannResultatInfisert SkannResultat = "FOUND"
)

// ClamAVClient scans uploads through a clamav-rest sidecar
type ClamAVClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClamAVClient creates a new virus scanner client
func NewClamAVClient(baseURL string, log *logger.Logger) *ClamAVClient {
	return &ClamAVClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

type skannSvar struct {
	Filename string `json:"Filename"`
	Result   string `json:"Result"`
}

// Skann submits the file to the scanner. A scanner outage is an error, not
// a clean verdict; uploads must not pass unscanned.
func (c *ClamAVClient) Skann(ctx context.Context, filnavn string, innhold []byte) (SkannResultat, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filnavn)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(innhold); err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/scan", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call clamav: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("virus scan failed")
		return "", fmt.Errorf("virus scan failed with status %d", resp.StatusCode)
	}

	var svar []skannSvar
	if err := json.NewDecoder(resp.Body).Decode(&svar); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(svar) == 0 {
		return "", fmt.Errorf("virus scan returned empty result")
	}

	if svar[0].Result != string(SkannResultatOK) {
		c.logger.Warn().Str("filnavn", filnavn).Str("result", svar[0].Result).Msg("upload rejected by virus scan")
		return SkannResultatInfisert, nil
	}

	return SkannResultatOK, nil
}
