package postingparser

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
)

// ErrUnparseable is returned when the parser service could not read the posting.
var ErrUnparseable = errors.New("posting could not be parsed")

// Posting is what the parser service extracted from a job posting page.
type Posting struct {
	Company  string `json:"company"`
	Role     string `json:"role"`
	Location string `json:"location"`
}

// Parser extracts posting details from a URL.
type Parser interface {
	Parse(ctx context.Context, postingURL string) (*Posting, error)
}

// HTTPParser calls an external parser service that accepts {"url": "..."}
// and answers with a Posting.
type HTTPParser struct {
	endpoint string
	client   *http.Client
}

// NewHTTPParser creates a parser client. A nil client gets a 15s timeout.
func NewHTTPParser(endpoint string, client *http.Client) *HTTPParser {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPParser{endpoint: endpoint, client: client}
}

func (p *HTTPParser) Parse(ctx context.Context, postingURL string) (*Posting, error) {
	body, err := json.Marshal(map[string]string{"url": postingURL})
	if err != nil {
		return nil, fmt.Errorf("postingparser.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("postingparser.Parse: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postingparser.Parse: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrUnparseable
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("postingparser.Parse: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var posting Posting
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&posting); err != nil {
		return nil, fmt.Errorf("postingparser.Parse: decode: %w", err)
	}
	posting.Company = strings.TrimSpace(posting.Company)
	posting.Role = strings.TrimSpace(posting.Role)
	posting.Location = strings.TrimSpace(posting.Location)
	if posting.Company == "" && posting.Role == "" && posting.Location == "" {
		return nil, ErrUnparseable
	}
	return &posting, nil
}

var _ Parser = (*HTTPParser)(nil)
