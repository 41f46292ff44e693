// Package googlebooks implements the metadata provider port against
// the Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"booklib-backend/application/ports"
	pkgerrors "booklib-backend/pkg/errors"
)

// defaultCoverURL stands in when a matched volume has no thumbnail.
const defaultCoverURL = "https://www.press.uillinois.edu/books/images/no_cover_lg.jpg"

// Client looks up book metadata by ISBN. A circuit breaker sits in
// front of the remote call so a flapping provider fails fast instead
// of holding every fetch to its full timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a Google Books client. baseURL is the API root,
// e.g. https://www.googleapis.com/books/v1.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "googlebooks",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		logger:     logger,
	}
}

// volumesResponse mirrors the subset of the volumes API we read.
type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			Categories  []string `json:"categories"`
			ImageLinks  struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Lookup queries the volumes API for an ISBN. It returns (nil, nil)
// when the API answers but matches nothing, and an unavailable error
// for transport failures so the dispatch transport decides on retry.
func (c *Client) Lookup(ctx context.Context, isbn string) (*ports.BookMetadata, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, isbn)
	})
	if err != nil {
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			return nil, err
		}
		// Breaker-open and other transport-level failures.
		return nil, pkgerrors.NewUnavailableError("metadata provider unavailable").WithCause(err)
	}

	meta, _ := result.(*ports.BookMetadata)
	return meta, nil
}

func (c *Client) lookup(ctx context.Context, isbn string) (*ports.BookMetadata, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+q.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build metadata request").WithCause(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.NewUnavailableError("metadata provider unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewUnavailableError(
			fmt.Sprintf("metadata provider returned status %d", resp.StatusCode))
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, pkgerrors.NewUnavailableError("metadata provider sent malformed response").WithCause(err)
	}

	if len(body.Items) == 0 {
		c.logger.Info("No metadata found", zap.String("isbn", isbn))
		return nil, nil
	}

	info := body.Items[0].VolumeInfo
	meta := &ports.BookMetadata{
		Title:         info.Title,
		Author:        strings.Join(info.Authors, ", "),
		Description:   info.Description,
		CoverImageURL: info.ImageLinks.Thumbnail,
	}
	if len(info.Categories) > 0 {
		meta.Genre = info.Categories[0]
	}
	if meta.CoverImageURL == "" {
		meta.CoverImageURL = defaultCoverURL
	}

	return meta, nil
}
