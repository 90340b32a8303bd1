package locationIQ

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

const defaultBaseURL = "https://us1.locationiq.com"

type LocationIQClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type Option func(*LocationIQClient)

// WithBaseURL points the client to another host (tests, EU region).
func WithBaseURL(u string) Option {
	return func(c *LocationIQClient) { c.baseURL = u }
}

func New(apiKey string, opts ...Option) *LocationIQClient {
	c := &LocationIQClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LocationIQClient) get(ctx context.Context, path string, query url.Values, dst any) error {
	query.Set("key", c.apiKey)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("failed to make request to LocationIQ: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return wrap.Error(ctx, types.ErrLocationNotFound)
	case resp.StatusCode != http.StatusOK:
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("unexpected response status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to decode data from LocationIQ response: %w", err))
	}
	return nil
}

// Geocode resolves a free-form address to coordinates.
func (c *LocationIQClient) Geocode(ctx context.Context, address string) (models.Location, error) {
	ctx = wrap.WithAction(ctx, "locationiq_geocode")

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "/v1/search", url.Values{"q": {address}, "limit": {"1"}}, &results); err != nil {
		return models.Location{}, err
	}
	if len(results) == 0 {
		return models.Location{}, wrap.Error(ctx, types.ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Location{}, wrap.Error(ctx, fmt.Errorf("failed to parse latitude: %w", err))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Location{}, wrap.Error(ctx, fmt.Errorf("failed to parse longitude: %w", err))
	}

	return models.Location{
		Latitude:  lat,
		Longitude: lon,
		Address:   results[0].DisplayName,
	}, nil
}

// ReverseGeocode returns a display address for the coordinates.
func (c *LocationIQClient) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	ctx = wrap.WithAction(ctx, "locationiq_reverse")

	var payload struct {
		Address string `json:"display_name"`
	}
	query := url.Values{
		"lat": {strconv.FormatFloat(latitude, 'f', 6, 64)},
		"lon": {strconv.FormatFloat(longitude, 'f', 6, 64)},
	}
	if err := c.get(ctx, "/v1/reverse", query, &payload); err != nil {
		return "", err
	}

	return payload.Address, nil
}
