package markers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// WGS84 is the EPSG code of longitude/latitude degrees.
const WGS84 = 4326

// LoadGeoJSON reads point features from a FeatureCollection. srid names the
// CRS of the coordinates; 0 or 4326 means degrees, anything else is
// transformed to degrees (for example 3857 web mercator metres).
//
// Ids come from the feature id, then the "id" property, then the feature
// index. Labels come from the "label" or "name" property. Remaining
// properties are kept as marker data. Non-point features are skipped.
func LoadGeoJSON(r io.Reader, srid int) ([]Marker, error) {
	var fc geom.GeoJSONFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding geojson: %w", err)
	}

	toDegrees := func(x, y float64) (float64, float64) { return x, y }
	if srid != 0 && srid != WGS84 {
		transform := wgs84.EPSG().Transform(srid, WGS84)
		toDegrees = func(x, y float64) (float64, float64) {
			lon, lat, _ := transform(x, y, 0)
			return lon, lat
		}
	}

	list := make([]Marker, 0, len(fc))
	for i, f := range fc {
		if !f.Geometry.IsPoint() {
			continue
		}
		c, ok := f.Geometry.MustAsPoint().Coordinates()
		if !ok {
			continue
		}
		lon, lat := toDegrees(c.XY.X, c.XY.Y)

		m := Marker{
			ID:    featureID(f, i),
			Label: stringProp(f.Properties, "label", "name"),
			Lat:   lat,
			Lon:   lon,
		}
		for k, v := range f.Properties {
			switch k {
			case "id", "label", "name":
				continue
			}
			if m.Data == nil {
				m.Data = make(map[string]any)
			}
			m.Data[k] = v
		}
		list = append(list, m)
	}

	if err := ValidateAll(list); err != nil {
		return nil, err
	}
	return list, nil
}

func featureID(f geom.GeoJSONFeature, index int) string {
	if id := anyString(f.ID); id != "" {
		return id
	}
	if id := anyString(f.Properties["id"]); id != "" {
		return id
	}
	return strconv.Itoa(index)
}

func stringProp(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := anyString(props[k]); s != "" {
			return s
		}
	}
	return ""
}

func anyString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
