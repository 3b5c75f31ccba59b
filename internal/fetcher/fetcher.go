// Package fetcher downloads the current fissure list from the worldstate API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fissure_watcher/internal/model"
)

// DefaultURL is the public worldstate fissure endpoint for PC.
const DefaultURL = "https://api.warframestat.us/pc/fissures"

const maxBody = 5 * 1024 * 1024

var (
	// ErrUnexpectedStatus is returned when the API answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNoValidFissures is returned when the list is non-empty but no record decodes.
	ErrNoValidFissures = errors.New("no valid fissures")
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and decodes fissure lists.
type Fetcher struct {
	client HTTPClient
	url    string
	log    *slog.Logger
}

// New creates a Fetcher that reads url with the given HTTP client.
func New(client HTTPClient, url string, log *slog.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{client: client, url: url, log: log}
}

// NewDefaultClient returns the HTTP client used outside of tests.
func NewDefaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// Fetch returns the full current fissure list.
// Records that fail to decode, such as ones naming a tier or faction added
// after this build, are logged and left out.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.Fissure, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "FissureWatcher/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode fissures: %w", err)
	}
	return f.decodeRecords(records)
}

func (f *Fetcher) decodeRecords(records []json.RawMessage) ([]model.Fissure, error) {
	fissures := make([]model.Fissure, 0, len(records))
	var lastErr error
	for i, raw := range records {
		var fissure model.Fissure
		if err := json.Unmarshal(raw, &fissure); err != nil {
			f.log.Warn("skip fissure", "index", i, "id", recordID(raw), "error", err)
			lastErr = err
			continue
		}
		fissures = append(fissures, fissure)
	}
	if len(fissures) == 0 && lastErr != nil {
		return nil, fmt.Errorf("decode fissures: %w: %w", ErrNoValidFissures, lastErr)
	}
	return fissures, nil
}

func recordID(raw json.RawMessage) string {
	var rec struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &rec)
	return rec.ID
}
