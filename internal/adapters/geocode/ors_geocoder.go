package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"home-compass-service/internal/ports"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ORSGeocoder implements ports.Geocoder using the OpenRouteService (Pelias) geocoding API.
//
// It coordinates:
//   - Address normalization
//   - Persistent forward and reverse caching
//   - External API calls with retry/backoff
//
// The geocoder is safe for concurrent use. Cache failures are logged and never fail a lookup.
type ORSGeocoder struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	country        string
	maxAttempts    int
	initialBackoff time.Duration
	forwardCache   ports.ForwardGeocodeCache
	reverseCache   ports.ReverseGeocodeCache
}

// Option customizes an ORSGeocoder.
type Option func(*ORSGeocoder)

func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSGeocoder) { o.session = c }
}

// WithCountry restricts forward results to an ISO country code.
func WithCountry(code string) Option {
	return func(o *ORSGeocoder) { o.country = code }
}

func WithRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(o *ORSGeocoder) {
		o.maxAttempts = maxAttempts
		o.initialBackoff = initialBackoff
	}
}

func WithForwardCache(c ports.ForwardGeocodeCache) Option {
	return func(o *ORSGeocoder) { o.forwardCache = c }
}

func WithReverseCache(c ports.ReverseGeocodeCache) Option {
	return func(o *ORSGeocoder) { o.reverseCache = c }
}

func NewORSGeocoder(apiKey string, opts ...Option) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session:        &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		baseURL:        "https://api.openrouteservice.org",
		maxAttempts:    4,
		initialBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Forward resolves address text via /geocode/search. Only single-result lookups are cached.
func (o *ORSGeocoder) Forward(
	ctx context.Context,
	text string,
	maxResults int,
) (_ []domain.Address, err error) {
	defer obs.Time(ctx, "ors.Forward")(&err)

	norm := normalize(text)
	if norm == "" {
		return nil, errors.New("forward geocode: text must be non-empty")
	}
	if maxResults < 1 {
		maxResults = 1
	}

	if o.forwardCache != nil && maxResults == 1 {
		addr, ok, err := o.forwardCache.Get(ctx, norm)
		if err != nil {
			logrus.WithError(err).WithField("query", norm).Warn("geocode cache read failed")
		} else if ok {
			return []domain.Address{addr}, nil
		}
	}

	endpoint := o.baseURL + "/geocode/search"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", strconv.Itoa(maxResults))
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("forward geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	out, err := decodeFeatures(resp, maxResults)
	if err != nil {
		return nil, fmt.Errorf("forward geocode %q: %w", norm, err)
	}

	if o.forwardCache != nil && maxResults == 1 && len(out) == 1 {
		if err := o.forwardCache.Put(ctx, norm, out[0]); err != nil {
			logrus.WithError(err).WithField("query", norm).Warn("geocode cache write failed")
		}
	}

	return out, nil
}

// Reverse resolves a coordinate via /geocode/reverse.
func (o *ORSGeocoder) Reverse(
	ctx context.Context,
	at domain.Coordinates,
	maxResults int,
) (_ []domain.Address, err error) {
	defer obs.Time(ctx, "ors.Reverse")(&err)

	if maxResults < 1 {
		maxResults = 1
	}

	if o.reverseCache != nil && maxResults == 1 {
		label, ok, err := o.reverseCache.Get(ctx, at)
		if err != nil {
			logrus.WithError(err).Warn("reverse cache read failed")
		} else if ok {
			return []domain.Address{{Coordinates: at, Label: label}}, nil
		}
	}

	endpoint := o.baseURL + "/geocode/reverse"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("point.lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
		q.Set("point.lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
		q.Set("size", strconv.Itoa(maxResults))
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reverse geocode %.6f,%.6f: %w", at.Lat, at.Lon, err)
	}
	defer resp.Body.Close()

	out, err := decodeFeatures(resp, maxResults)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode %.6f,%.6f: %w", at.Lat, at.Lon, err)
	}

	if o.reverseCache != nil && maxResults == 1 && len(out) == 1 && out[0].Label != "" {
		if err := o.reverseCache.Put(ctx, at, out[0].Label); err != nil {
			logrus.WithError(err).Warn("reverse cache write failed")
		}
	}

	return out, nil
}

func decodeFeatures(resp *http.Response, maxResults int) ([]domain.Address, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	out := make([]domain.Address, 0, len(decoded.Features))
	for i, f := range decoded.Features {
		if len(out) == maxResults {
			break
		}
		coords := f.Geometry.Coordinates
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinate format in feature %d", i)
		}
		out = append(out, domain.Address{
			Coordinates: domain.Coordinates{Lon: coords[0], Lat: coords[1]},
			Label:       f.Properties.Label,
		})
	}

	return out, nil
}
