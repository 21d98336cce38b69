package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/httpjson"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap geocoder.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "kira-trips/1.0"
	nominatimTimeout    = 10 * time.Second
)

// NominatimClient geocodes place names against a Nominatim instance.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewNominatimClient constructs a client for the public endpoint, limited to
// one request per second.
func NewNominatimClient(userAgent string) *NominatimClient {
	c, _ := NewNominatimClientWithURL(DefaultNominatimURL, userAgent, rate.Every(time.Second))
	return c
}

// NewNominatimClientWithURL constructs a client with a custom base URL and
// request rate.
func NewNominatimClientWithURL(baseURL, userAgent string, limit rate.Limit) (*NominatimClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Nominatim URL %q", baseURL)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &NominatimClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    httpjson.NewClient(nominatimTimeout),
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// Resolve returns the coordinate of the best match for name.
func (c *NominatimClient) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return geo.Coordinate{}, ErrNotFound
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return geo.Coordinate{}, fmt.Errorf("waiting for geocoder rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")

	var hits []map[string]any
	header := http.Header{"User-Agent": []string{c.userAgent}}
	if err := httpjson.Get(ctx, c.client, c.baseURL+"/search?"+q.Encode(), header, &hits); err != nil {
		return geo.Coordinate{}, fmt.Errorf("geocoding %s: %w", name, err)
	}
	if len(hits) == 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	coord, ok := geo.ExtractCoordinate(hits[0])
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%w: %q has no usable coordinate", ErrNotFound, name)
	}
	return coord, nil
}

// Ping checks that the geocoder answers.
func (c *NominatimClient) Ping(ctx context.Context) error {
	return httpjson.Get(ctx, c.client, c.baseURL+"/status?format=json", http.Header{"User-Agent": []string{c.userAgent}}, nil)
}
