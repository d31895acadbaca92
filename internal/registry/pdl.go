package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/melosys/skjema-api/pkg/logger"
)

// PdlClient fetches person data from PDL (persondataløsningen)
type PdlClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewPdlClient creates a new PDL client
func NewPdlClient(baseURL string, log *logger.Logger) *PdlClient {
	return &PdlClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

// Person is the subset of PDL person data exposed to form prefill
type Person struct {
	Fornavn      string `json:"fornavn"`
	Etternavn    string `json:"etternavn"`
	Foedselsdato string `json:"foedselsdato"`
}

const hentPersonQuery = `
query($ident: ID!) {
  hentPerson(ident: $ident) {
    navn(historikk: false) { fornavn etternavn }
    foedselsdato { foedselsdato }
  }
}`

type pdlRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type pdlResponse struct {
	Data struct {
		HentPerson *struct {
			Navn []struct {
				Fornavn   string `json:"fornavn"`
				Etternavn string `json:"etternavn"`
			} `json:"navn"`
			Foedselsdato []struct {
				Foedselsdato string `json:"foedselsdato"`
			} `json:"foedselsdato"`
		} `json:"hentPerson"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HentPerson looks up a person by national identity number.
// Returns nil when PDL does not know the ident.
func (c *PdlClient) HentPerson(ctx context.Context, ident string) (*Person, error) {
	payload, err := json.Marshal(pdlRequest{
		Query:     hentPersonQuery,
		Variables: map[string]string{"ident": ident},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/graphql", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call pdl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("pdl lookup failed")
		return nil, fmt.Errorf("pdl lookup failed with status %d", resp.StatusCode)
	}

	var response pdlResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("pdl query failed: %s", response.Errors[0].Message)
	}
	if response.Data.HentPerson == nil || len(response.Data.HentPerson.Navn) == 0 {
		return nil, nil
	}

	person := &Person{
		Fornavn:   response.Data.HentPerson.Navn[0].Fornavn,
		Etternavn: response.Data.HentPerson.Navn[0].Etternavn,
	}
	if len(response.Data.HentPerson.Foedselsdato) > 0 {
		person.Foedselsdato = response.Data.HentPerson.Foedselsdato[0].Foedselsdato
	}

	return person, nil
}
