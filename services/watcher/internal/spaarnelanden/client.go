package spaarnelanden

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

var (
	// ErrTransport marks failures to obtain the page: connection errors,
	// timeouts and non-2xx responses.
	ErrTransport = errors.New("transport")
	// ErrExtraction marks pages whose container model could not be located or
	// decoded.
	ErrExtraction = errors.New("extraction")
	// ErrMapping marks container entries with missing or malformed fields.
	ErrMapping = errors.New("mapping")
)

// Client retrieves the Spaarnelanden container overview page.
type Client struct {
	http      *http.Client
	url       string
	extractor Extractor
}

// NewClient constructs a client for the given page URL. The http client is
// expected to carry the request timeout.
func NewClient(httpClient *http.Client, url string) *Client {
	return &Client{http: httpClient, url: url, extractor: DefaultExtractor()}
}

// FetchContainers performs one GET against the page and returns the decoded
// container model.
func (c *Client) FetchContainers(ctx context.Context) ([]models.RawContainer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request container page: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read container page: %w", ErrTransport, err)
	}

	return c.extractor.Extract(bytes.NewReader(body))
}
