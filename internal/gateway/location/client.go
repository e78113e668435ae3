package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/relawanhub/relawan/internal/domain"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultCountryCodes = "id"
	userAgent           = "relawan-cli/1.0"
)

// ErrLocationLookup is returned when geocoding fails.
var ErrLocationLookup = errors.New("error when trying to get location")

// HTTPClient performs geocoder requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves addresses to coordinates.
type Client struct {
	httpClient   HTTPClient
	baseURL      string
	countryCodes string
}

// Option configures a Client.
type Option func(*Client)

// WithCountryCodes limits results to ISO 3166-1 alpha-2 codes (comma
// separated). Empty disables the filter.
func WithCountryCodes(codes string) Option {
	return func(c *Client) {
		c.countryCodes = strings.TrimSpace(codes)
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", text, err)
		}
		*c = coordinate(value)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = coordinate(value)
		return nil
	}

	return fmt.Errorf("coordinate must be a string or number")
}

type nominatimResult struct {
	Lat         coordinate `json:"lat"`
	Lon         coordinate `json:"lon"`
	DisplayName string     `json:"display_name"`
}

// NewClient creates a location client limited to Indonesia by default.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      defaultNominatimURL,
		countryCodes: defaultCountryCodes,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Lookup resolves an address using OSM Nominatim.
func (c *Client) Lookup(ctx context.Context, address string) (domain.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Place{}, fmt.Errorf("%w: address is empty", ErrLocationLookup)
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if c.countryCodes != "" {
		query.Set("countrycodes", c.countryCodes)
	}
	uri := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.Place{}, fmt.Errorf("%w: status %d", ErrLocationLookup, res.StatusCode)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.Place{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	if len(payload) == 0 {
		return domain.Place{}, fmt.Errorf("%w: no results for %q", ErrLocationLookup, address)
	}
	return domain.Place{
		Location: domain.Location{
			Lat: float64(payload[0].Lat),
			Lon: float64(payload[0].Lon),
		},
		DisplayName: strings.TrimSpace(payload[0].DisplayName),
	}, nil
}
