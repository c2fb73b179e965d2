// Package markers loads the points shown on the globe.
package markers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrInvalidLatitude is returned for latitudes outside [-90, 90].
	ErrInvalidLatitude = errors.New("latitude out of range")
	// ErrInvalidLongitude is returned for longitudes outside [-180, 180].
	ErrInvalidLongitude = errors.New("longitude out of range")
	// ErrMissingID is returned for a marker without id.
	ErrMissingID = errors.New("marker id is empty")
	// ErrDuplicateID is returned when two markers share an id.
	ErrDuplicateID = errors.New("duplicate marker id")
)

// Marker is an immutable point of interest in degrees.
type Marker struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Lat   float64        `json:"lat"`
	Lon   float64        `json:"lon"`
	Data  map[string]any `json:"data,omitempty"`
}

// Validate checks the marker coordinates and id.
func (m Marker) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if m.Lat < -90 || m.Lat > 90 {
		return fmt.Errorf("marker %q: %w: %v", m.ID, ErrInvalidLatitude, m.Lat)
	}
	if m.Lon < -180 || m.Lon > 180 {
		return fmt.Errorf("marker %q: %w: %v", m.ID, ErrInvalidLongitude, m.Lon)
	}
	return nil
}

// ValidateAll validates every marker and rejects duplicate ids.
func ValidateAll(list []Marker) error {
	seen := make(map[string]struct{}, len(list))
	for _, m := range list {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

type city struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// LoadCities reads a JSON array of {city, country, lat, lon}. Marker ids are
// the array indexes.
func LoadCities(r io.Reader) ([]Marker, error) {
	var cities []city
	if err := json.NewDecoder(r).Decode(&cities); err != nil {
		return nil, fmt.Errorf("decoding cities: %w", err)
	}

	list := make([]Marker, 0, len(cities))
	for i, c := range cities {
		m := Marker{ID: strconv.Itoa(i), Label: c.City, Lat: c.Lat, Lon: c.Lon}
		if c.Country != "" {
			m.Data = map[string]any{"country": c.Country}
		}
		list = append(list, m)
	}
	if err := ValidateAll(list); err != nil {
		return nil, err
	}
	return list, nil
}

// LoadFile loads markers by extension: .geojson goes through LoadGeoJSON
// with srid as the source CRS, anything else through LoadCities.
func LoadFile(path string, srid int) ([]Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening markers: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".geojson") {
		return LoadGeoJSON(f, srid)
	}
	return LoadCities(f)
}
