package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

const (
	httpTimeout     = 30 * time.Second
	maxResponseSize = 16 << 20
)

// HTTPSourceConfig locates the four catalogs. Paths containing %s receive the
// escaped catalog identifier.
type HTTPSourceConfig struct {
	BaseURL           string
	LookupsPath       string
	WorkLocationsPath string
	CountriesPath     string
	CategoriesPath    string

	// Token returns the bearer token to send, or "" for none.
	Token func() string
}

func (c HTTPSourceConfig) withDefaults() HTTPSourceConfig {
	if c.LookupsPath == "" {
		c.LookupsPath = "/lookup"
	}
	if c.WorkLocationsPath == "" {
		c.WorkLocationsPath = "/lookup/hierarchy/%s"
	}
	if c.CountriesPath == "" {
		c.CountriesPath = "/countries"
	}
	if c.CategoriesPath == "" {
		c.CategoriesPath = "/products/categories/%s"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// HTTPSource implements domain.Source against a JSON HTTP API.
type HTTPSource struct {
	cfg    HTTPSourceConfig
	client *http.Client
}

// NewHTTPSource builds a source. A nil client gets a default with a timeout.
func NewHTTPSource(cfg HTTPSourceConfig, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &HTTPSource{cfg: cfg.withDefaults(), client: client}
}

func (s *HTTPSource) FetchLookups(ctx context.Context) ([]domain.Record, error) {
	return s.get(ctx, s.cfg.LookupsPath)
}

func (s *HTTPSource) FetchWorkLocations(ctx context.Context, catalogID string) ([]domain.Record, error) {
	return s.get(ctx, withCatalog(s.cfg.WorkLocationsPath, catalogID))
}

func (s *HTTPSource) FetchCountries(ctx context.Context) ([]domain.Record, error) {
	return s.get(ctx, s.cfg.CountriesPath)
}

func (s *HTTPSource) FetchCategories(ctx context.Context, catalogID string) ([]domain.Record, error) {
	return s.get(ctx, withCatalog(s.cfg.CategoriesPath, catalogID))
}

func withCatalog(path, catalogID string) string {
	if !strings.Contains(path, "%s") {
		return path
	}
	return fmt.Sprintf(path, url.PathEscape(catalogID))
}

func (s *HTTPSource) get(ctx context.Context, path string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.Token != nil {
		if token := strings.TrimSpace(s.cfg.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}
	return decodeRecords(body)
}

// decodeRecords accepts a bare JSON array or an object wrapping one under
// data, items or results.
func decodeRecords(body []byte) ([]domain.Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrUnexpectedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		for _, field := range []string{"data", "items", "results"} {
			if v := root.Get(field); v.IsArray() {
				root = v
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, domain.ErrUnexpectedPayload
	}

	items := root.Array()
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		out = append(out, domain.Record(item.Raw))
	}
	return out, nil
}
