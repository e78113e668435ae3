package domain

// Location identifies a point on earth.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the point is a numerically valid WGS 84 coordinate.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// Bounds is a rectangular latitude/longitude range. Edges are inclusive.
type Bounds struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// IndonesiaBounds is the coarse box used to reject out-of-region pastes.
var IndonesiaBounds = Bounds{MinLat: -11, MinLon: 95, MaxLat: 6, MaxLon: 141}

// Contains reports whether loc lies inside the box.
func (b Bounds) Contains(loc Location) bool {
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat && loc.Lon >= b.MinLon && loc.Lon <= b.MaxLon
}

// DefaultZoom is used when a link carries no explicit zoom level.
const DefaultZoom = 15

// ParsedLocationLink is a location-form patch extracted from a pasted link.
type ParsedLocationLink struct {
	Location   `yaml:",inline"`
	Zoom       int      `json:"zoom" yaml:"zoom"`
	PlaceLabel string   `json:"place_label" yaml:"place_label"`
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Place is a geocoded address.
type Place struct {
	Location    `yaml:",inline"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}
