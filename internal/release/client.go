package release

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oshokin/lilith-launcher/internal/logger"
)

const (
	// schemaURL names the embedded schema inside the compiler.
	schemaURL = "version.schema.json"

	// maxMetadataSize caps the versions response body.
	maxMetadataSize = 1 << 20
)

var (
	// ErrFetch marks every failure to obtain valid release metadata.
	ErrFetch = errors.New("fetch release metadata")
	// errBadHTTPStatus is returned for non-200 responses.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errTooLarge is returned when the body exceeds maxMetadataSize.
	errTooLarge = errors.New("response body too large")
)

//go:embed version.schema.json
var versionSchema string

// HTTPClient is the subset of *http.Client the release client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches release metadata from the versions endpoint.
type Client struct {
	// endpoint is the URL returning the latest release.
	endpoint string
	// httpClient performs the request.
	httpClient HTTPClient
	// schema validates the response shape before decoding.
	schema *jsonschema.Schema
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	schema, err := jsonschema.CompileString(schemaURL, versionSchema)
	if err != nil {
		return nil, fmt.Errorf("compile release schema: %w", err)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		schema:     schema,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchLatest makes a single attempt to load the latest release metadata.
// Every failure wraps ErrFetch.
func (c *Client) FetchLatest(ctx context.Context) (*Metadata, error) {
	logger.DebugKV(ctx, "Requesting release metadata", "endpoint", c.endpoint)

	body, err := c.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	metadata, err := c.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	logger.DebugKV(ctx, "Release metadata received", "version", metadata.Version, "name", metadata.Name)

	return metadata, nil
}

// get performs the request and returns the raw body.
func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", c.endpoint, response.Status, errBadHTTPStatus)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxMetadataSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if len(body) > maxMetadataSize {
		return nil, errTooLarge
	}

	return body, nil
}

// decode validates body against the schema and unmarshals it.
func (c *Client) decode(body []byte) (*Metadata, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if err := c.schema.Validate(document); err != nil {
		return nil, fmt.Errorf("validate response: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &metadata, nil
}
