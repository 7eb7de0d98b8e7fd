package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/logging"
)

// DefaultRegistry returns the registry used when none is configured: the
// mirror by default, or the upstream public registry when original is true.
func DefaultRegistry(original bool) string {
	if original {
		return branding.OriginalRegistryURL()
	}
	return branding.RegistryURL()
}

// Client fetches package metadata from one registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client for baseURL. An empty baseURL selects
// DefaultRegistry(false).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry(false)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry this client queries.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PackageURL joins the registry base and a package name.
func (c *Client) PackageURL(name string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(name, "/")
}

// Metadata fetches the metadata document for name.
func (c *Client) Metadata(ctx context.Context, name string) (*Metadata, error) {
	if name == "" {
		return nil, fmt.Errorf("package name is empty")
	}

	url := c.PackageURL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", branding.CLIName())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %s not found in %s", name, c.baseURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", name, err)
	}
	return &meta, nil
}

// FetchMetadata is Metadata with every failure translated into nil. The
// cause is logged at debug level and never returned.
func (c *Client) FetchMetadata(ctx context.Context, name string) *Metadata {
	meta, err := c.Metadata(ctx, name)
	if err != nil {
		c.logger.Debug("registry lookup failed", "package", name, "registry", c.baseURL, "err", err)
		return nil
	}
	return meta
}
