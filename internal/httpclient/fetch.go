// Package httpclient fetches NZB payloads as text over HTTP, the same
// context-scoped GET + status check + User-Agent shape the indexer client
// this codebase already ships uses for downloading NZBs, generalized to the
// triage engine's exact Accept/User-Agent contract.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const userAgent = "UsenetStreamer-Triage"
const acceptHeader = "application/x-nzb,text/xml;q=0.9,*/*;q=0.8"

// Fetcher downloads NZB payloads. It exists as an interface so the Runner
// can be driven by a fake HTTP layer in tests.
type Fetcher interface {
	FetchNZB(ctx context.Context, url string) (string, error)
}

type httpFetcher struct {
	client *http.Client
}

func New() Fetcher {
	return &httpFetcher{client: http.DefaultClient}
}

// FetchNZB performs GET url and returns the body as UTF-8 text. An empty
// body is treated as a failure by the caller, not here.
func (f *httpFetcher) FetchNZB(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nzb fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
