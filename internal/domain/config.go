package domain

// Profile stores per-user CLI defaults.
type Profile struct {
	Name         string         `json:"name"`
	IsDefault    bool           `json:"is_default"`
	Track        string         `json:"track,omitempty"`
	RegionPolicy string         `json:"region_policy,omitempty"`
	Locale       string         `json:"locale,omitempty"`
	Home         *Location      `json:"home,omitempty"`
	LastCounts   map[string]int `json:"last_counts,omitempty"`
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles"`
}
