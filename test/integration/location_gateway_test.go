package integration_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	locationgateway "github.com/relawanhub/relawan/internal/gateway/location"
	"github.com/relawanhub/relawan/internal/maplink"
)

// staticHTTPClient answers geocoder searches from fixtures keyed by the q
// parameter. Unknown queries get a 500.
type staticHTTPClient struct {
	routes map[string][]byte
	seen   []*http.Request
}

func (c *staticHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.seen = append(c.seen, req)
	payload := c.routes[req.URL.Query().Get("q")]
	statusCode := http.StatusOK
	if payload == nil {
		payload = []byte(`{"error":"upstream failure"}`)
		statusCode = http.StatusInternalServerError
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader(payload)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func readFixture(t *testing.T, filename string) []byte {
	t.Helper()
	path := filepath.Join("testdata", "nominatim", filename)
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", filename, err)
	}
	return payload
}

func newFixtureClient(t *testing.T) (*locationgateway.Client, *staticHTTPClient) {
	t.Helper()
	httpClient := &staticHTTPClient{routes: map[string][]byte{
		"Monas":        readFixture(t, "monas.json"),
		"Eiffel Tower": readFixture(t, "eiffel.json"),
		"Nowhere":      readFixture(t, "empty.json"),
	}}
	client := locationgateway.NewClient(
		locationgateway.WithHTTPClient(httpClient),
		locationgateway.WithBaseURL("https://nominatim.example.test/search"),
	)
	return client, httpClient
}

func TestLookupWithSuccessResponse(t *testing.T) {
	client, httpClient := newFixtureClient(t)

	place, err := client.Lookup(context.Background(), "Monas")
	if err != nil {
		t.Fatalf("lookup returned error: %v", err)
	}
	if place.Lat != -6.1753924 || place.Lon != 106.8271528 {
		t.Fatalf("unexpected coordinates: %+v", place.Location)
	}
	if place.DisplayName == "" {
		t.Fatal("expected display name from fixture")
	}
	if len(httpClient.seen) != 1 {
		t.Fatalf("expected one upstream request, got %d", len(httpClient.seen))
	}
	req := httpClient.seen[0]
	if req.URL.Host != "nominatim.example.test" || req.URL.Path != "/search" {
		t.Fatalf("unexpected upstream url %s", req.URL)
	}
	if got := req.URL.Query().Get("countrycodes"); got != "id" {
		t.Fatalf("expected default countrycodes=id, got %q", got)
	}
}

func TestLookupResultFeedsRegionCheck(t *testing.T) {
	client, _ := newFixtureClient(t)
	parser := maplink.New(maplink.WithRegionPolicy(maplink.RegionStrict))

	inside, err := client.Lookup(context.Background(), "Monas")
	if err != nil {
		t.Fatalf("lookup Monas: %v", err)
	}
	if _, err := parser.Parse(maplink.FormatCoordinate(inside.Location)); err != nil {
		t.Fatalf("expected Monas to pass the strict region check, got %v", err)
	}

	outside, err := client.Lookup(context.Background(), "Eiffel Tower")
	if err != nil {
		t.Fatalf("lookup Eiffel Tower: %v", err)
	}
	_, err = parser.Parse(maplink.FormatCoordinate(outside.Location))
	if !errors.Is(err, maplink.ErrOutOfRegion) {
		t.Fatalf("expected ErrOutOfRegion for a coordinate in Paris, got %v", err)
	}
}

func TestLookupWithEmptyResult(t *testing.T) {
	client, _ := newFixtureClient(t)

	_, err := client.Lookup(context.Background(), "Nowhere")
	if !errors.Is(err, locationgateway.ErrLocationLookup) {
		t.Fatalf("expected ErrLocationLookup, got %v", err)
	}
}

func TestLookupWithErrorResponse(t *testing.T) {
	client, _ := newFixtureClient(t)

	_, err := client.Lookup(context.Background(), "Atlantis")
	if !errors.Is(err, locationgateway.ErrLocationLookup) {
		t.Fatalf("expected ErrLocationLookup for upstream 500, got %v", err)
	}
}
