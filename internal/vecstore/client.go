// Package vecstore is the client for the remote vector index service. It
// covers the CRUD and query surface the retrieval pipeline needs: nearest
// neighbor query, idempotent upsert, delete by id, full paginated id listing
// and batched fetch.
//
// Index existence is checked against the live index listing before each
// operation, never cached: a deleted or renamed index must surface as
// ErrIndexNotFound on the next call, not on process restart.
package vecstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable indicates a transport or authentication failure talking
	// to the vector index service.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrIndexNotFound indicates the configured index does not exist.
	ErrIndexNotFound = errors.New("index not found")
)

// DefaultPageSize is the listing page size when the caller passes zero.
const DefaultPageSize = 100

// DefaultFetchBatchSize is the fetch partition size when the caller passes
// zero.
const DefaultFetchBatchSize = 1000

// Config contains the required parameters for the Client.
type Config struct {
	// BaseURL is the control-plane endpoint used for index listing.
	BaseURL string

	// APIKey authenticates every request.
	APIKey string

	// Index is the index name; its data-plane host is resolved from the
	// live index listing.
	Index string

	// Namespace scopes all data operations. Optional.
	Namespace string

	// HTTPClient overrides the default client (tests). Optional.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the vector index service. Safe for concurrent use: all
// fields are read-only after construction.
type Client struct {
	baseURL   string
	apiKey    string
	index     string
	namespace string
	httpc     *http.Client
	logger    *slog.Logger
}

// New creates a vector index client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Index == "" {
		return nil, errors.New("index name is required")
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		index:     cfg.Index,
		namespace: cfg.Namespace,
		httpc:     httpc,
		logger:    logger,
	}, nil
}

// Query returns up to topK matches ordered by descending similarity.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	host, err := c.resolveHost(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeValues:   true,
		IncludeMetadata: true,
		Namespace:       c.namespace,
	}
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return resp.Matches, nil
}

// Upsert inserts or fully replaces one record. Idempotent.
func (c *Client) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	host, err := c.resolveHost(ctx)
	if err != nil {
		return err
	}

	req := upsertRequest{
		Vectors:   []Record{{ID: id, Values: vector, Metadata: metadata}},
		Namespace: c.namespace,
	}
	if err := c.do(ctx, http.MethodPost, host+"/vectors/upsert", req, nil); err != nil {
		return fmt.Errorf("upsert %q: %w", id, err)
	}
	return nil
}

// Delete removes one record by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	host, err := c.resolveHost(ctx)
	if err != nil {
		return err
	}

	req := deleteRequest{IDs: []string{id}, Namespace: c.namespace}
	if err := c.do(ctx, http.MethodPost, host+"/vectors/delete", req, nil); err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	return nil
}

// ListAllIDs returns every record id in the index, paging until the service
// stops returning a continuation token. It makes no assumption about corpus
// size; each page holds at most pageSize ids (DefaultPageSize when zero).
func (c *Client) ListAllIDs(ctx context.Context, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	host, err := c.resolveHost(ctx)
	if err != nil {
		return nil, err
	}

	var all []string
	token := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		if c.namespace != "" {
			q.Set("namespace", c.namespace)
		}
		if token != "" {
			q.Set("paginationToken", token)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, host+"/vectors/list?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list ids: %w", err)
		}

		for _, v := range page.Vectors {
			all = append(all, v.ID)
		}

		token = page.Pagination.Next
		if token == "" {
			return all, nil
		}
	}
}

// FetchByIDs fetches records in batches of batchSize (DefaultFetchBatchSize
// when zero). A failed batch is logged and skipped rather than aborting the
// whole fetch: corpora are large and individual batch failures are often
// transient, so a partial result beats none.
func (c *Client) FetchByIDs(ctx context.Context, ids []string, batchSize int) ([]Record, error) {
	if batchSize <= 0 {
		batchSize = DefaultFetchBatchSize
	}

	host, err := c.resolveHost(ctx)
	if err != nil {
		return nil, err
	}

	var all []Record
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batch := ids[start:end]

		q := url.Values{}
		for _, id := range batch {
			q.Add("ids", id)
		}
		if c.namespace != "" {
			q.Set("namespace", c.namespace)
		}

		var resp fetchResponse
		if err := c.do(ctx, http.MethodGet, host+"/vectors/fetch?"+q.Encode(), nil, &resp); err != nil {
			c.logger.Warn("fetch batch failed, skipping",
				"start", start, "size", len(batch), "error", err)
			continue
		}

		for _, rec := range resp.Vectors {
			all = append(all, rec)
		}
	}
	return all, nil
}

// resolveHost checks the live index listing and returns the data-plane base
// URL for the configured index.
func (c *Client) resolveHost(ctx context.Context) (string, error) {
	var resp indexListResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/indexes", nil, &resp); err != nil {
		return "", fmt.Errorf("listing indexes: %w", err)
	}

	for _, idx := range resp.Indexes {
		if idx.Name == c.index {
			host := idx.Host
			if !strings.Contains(host, "://") {
				host = "https://" + host
			}
			return strings.TrimRight(host, "/"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrIndexNotFound, c.index)
}

// do executes one JSON request/response round trip. Transport errors and
// non-2xx statuses wrap ErrUnavailable so callers can degrade uniformly.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
