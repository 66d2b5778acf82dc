package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

var (
	// ErrDisabled is returned when no Maps API key is configured.
	ErrDisabled  = errors.New("maps api key not configured")
	ErrNoResults = errors.New("no geocoding results")
)

// MapsClient wraps the Google Maps geocoding and distance matrix APIs.
type MapsClient struct {
	client *maps.Client
	logger *zap.Logger
}

// NewMapsClient creates a client. An empty apiKey yields a disabled client whose calls return ErrDisabled.
func NewMapsClient(apiKey string, logger *zap.Logger, opts ...maps.ClientOption) (*MapsClient, error) {
	if apiKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; geocoding and proximity disabled")
		return &MapsClient{logger: logger}, nil
	}
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &MapsClient{client: c, logger: logger}, nil
}

// Enabled reports whether an API key was configured.
func (m *MapsClient) Enabled() bool { return m.client != nil }

// Geocode resolves an address to latitude and longitude.
func (m *MapsClient) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if m.client == nil {
		return 0, 0, ErrDisabled
	}
	results, err := m.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, ErrNoResults
	}
	loc := results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

// Element is one origin/destination pair of a distance matrix.
type Element struct {
	Status          string `json:"status"`
	DistanceText    string `json:"distance_text,omitempty"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationText    string `json:"duration_text,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// Matrix is the distance matrix between origins (rows) and destinations (columns).
type Matrix struct {
	OriginAddresses      []string    `json:"origin_addresses"`
	DestinationAddresses []string    `json:"destination_addresses"`
	Rows                 [][]Element `json:"rows"`
}

// Distance returns driving distances in imperial units between every origin and destination.
func (m *MapsClient) Distance(ctx context.Context, origins, destinations []string) (*Matrix, error) {
	if m.client == nil {
		return nil, ErrDisabled
	}
	resp, err := m.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      origins,
		Destinations: destinations,
		Units:        maps.UnitsImperial,
	})
	if err != nil {
		return nil, fmt.Errorf("distance matrix: %w", err)
	}
	out := &Matrix{
		OriginAddresses:      resp.OriginAddresses,
		DestinationAddresses: resp.DestinationAddresses,
		Rows:                 make([][]Element, 0, len(resp.Rows)),
	}
	for _, row := range resp.Rows {
		elems := make([]Element, 0, len(row.Elements))
		for _, e := range row.Elements {
			if e == nil {
				continue
			}
			elems = append(elems, Element{
				Status:          e.Status,
				DistanceText:    e.Distance.HumanReadable,
				DistanceMeters:  e.Distance.Meters,
				DurationText:    humanDuration(e.Duration.Seconds()),
				DurationSeconds: int64(e.Duration.Seconds()),
			})
		}
		out.Rows = append(out.Rows, elems)
	}
	return out, nil
}

func humanDuration(secs float64) string {
	if secs <= 0 {
		return ""
	}
	mins := int(secs/60 + 0.5)
	if mins < 60 {
		return fmt.Sprintf("%d mins", mins)
	}
	return fmt.Sprintf("%d hours %d mins", mins/60, mins%60)
}

// SplitPlaces splits a pipe-separated list of places, dropping blanks.
func SplitPlaces(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
