package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestHTTPSource_FetchesEveryCatalog(t *testing.T) {
	var (
		gotURLs  []string
		gotToken string
	)
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			gotURLs = append(gotURLs, req.URL.String())
			gotToken = req.Header.Get("Authorization")
			return jsonResponse(http.StatusOK, `[{"lookupType":"Gender","name":"Female"}]`), nil
		}),
	}
	src := NewHTTPSource(HTTPSourceConfig{
		BaseURL: "https://portal.test/api/",
		Token:   StaticToken("abc"),
	}, client)
	ctx := context.Background()

	records, err := src.FetchLookups(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Female", records[0].Get("name").String())

	_, err = src.FetchWorkLocations(ctx, "wl 1")
	require.NoError(t, err)
	_, err = src.FetchCountries(ctx)
	require.NoError(t, err)
	_, err = src.FetchCategories(ctx, "cat-9")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://portal.test/api/lookup",
		"https://portal.test/api/lookup/hierarchy/wl%201",
		"https://portal.test/api/countries",
		"https://portal.test/api/products/categories/cat-9",
	}, gotURLs)
	assert.Equal(t, "Bearer abc", gotToken)
}

func TestHTTPSource_UnwrapsDataEnvelope(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"status":"ok","data":[{"code":"IE"},{"code":"FR"}]}`), nil
		}),
	}
	src := NewHTTPSource(HTTPSourceConfig{BaseURL: "https://portal.test"}, client)

	records, err := src.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "FR", records[1].Get("code").String())
}

func TestHTTPSource_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{name: "server error", status: http.StatusBadGateway, body: `[]`},
		{name: "object without array", status: http.StatusOK, body: `{"data":{"x":1}}`, is: domain.ErrUnexpectedPayload},
		{name: "invalid json", status: http.StatusOK, body: `<html>`, is: domain.ErrUnexpectedPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &http.Client{
				Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
					return jsonResponse(tc.status, tc.body), nil
				}),
			}
			src := NewHTTPSource(HTTPSourceConfig{BaseURL: "https://portal.test"}, client)

			_, err := src.FetchLookups(context.Background())
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestHTTPSource_NoTokenNoHeader(t *testing.T) {
	var header string
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			header = req.Header.Get("Authorization")
			return jsonResponse(http.StatusOK, `[]`), nil
		}),
	}
	src := NewHTTPSource(HTTPSourceConfig{BaseURL: "https://portal.test", Token: StaticToken("  ")}, client)

	records, err := src.FetchCountries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, header)
}
