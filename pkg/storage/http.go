package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// HTTPStore reads objects over plain HTTP(S), e.g. https://data.commoncrawl.org/ paths.
type HTTPStore struct {
	client *http.Client
}

func NewHTTPStore() *HTTPStore {
	return &HTTPStore{
		client: &http.Client{Timeout: 30 * time.Minute},
	}
}

func (s *HTTPStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, location)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s, status code: %d", location, resp.StatusCode)
	}
}

func (s *HTTPStore) Put(_ context.Context, location string, _ io.Reader) error {
	return fmt.Errorf("%w: http locations are read-only: %s", models.ErrUnsupportedScheme, location)
}
