// Package maplink extracts coordinates from pasted Google Maps links and
// bare "lat,lng" pairs.
package maplink

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
)

// Rule names, in evaluation order.
const (
	RuleAtZoom = "at_zoom"
	RuleAt     = "at"
	RuleData   = "data"
	RuleQuery  = "query"
	RuleLL     = "ll"
	RuleSearch = "search"
	RuleBare   = "bare"
	RuleLoose  = "loose"
)

const number = `(-?\d+\.?\d*)`

type rule struct {
	name    string
	pattern *regexp.Regexp
	trimmed bool
	zoom    bool
}

var rules = []rule{
	{name: RuleAtZoom, pattern: regexp.MustCompile(`@` + number + `,` + number + `,(\d+\.?\d*)z`), zoom: true},
	{name: RuleAt, pattern: regexp.MustCompile(`@` + number + `,` + number)},
	{name: RuleData, pattern: regexp.MustCompile(`!3d` + number + `!4d` + number)},
	{name: RuleQuery, pattern: regexp.MustCompile(`[?&]?(?:q|query)=` + number + `,` + number)},
	{name: RuleLL, pattern: regexp.MustCompile(`[?&]?ll=` + number + `,` + number)},
	{name: RuleSearch, pattern: regexp.MustCompile(`search/` + number + `,\s*\+?` + number)},
	{name: RuleBare, pattern: regexp.MustCompile(`^` + number + `\s*,\s*` + number + `$`), trimmed: true},
}

var looseRule = rule{
	name:    RuleLoose,
	pattern: regexp.MustCompile(`(-?\d{1,3}\.\d+)\s*,\s*\+?(-?\d{1,3}\.\d+)`),
}

var (
	placeSegment = regexp.MustCompile(`/place/([^/]+)/`)
	mapsSegment  = regexp.MustCompile(`/maps/([^@/]+)`)
	shortHosts   = []string{"maps.app.goo.gl", "goo.gl/maps", "g.co/kgs"}
	reserved     = map[string]struct{}{"place": {}, "search": {}, "dir": {}, "embed": {}}
)

// RegionPolicy decides what happens to coordinates outside the bounds.
type RegionPolicy string

const (
	RegionStrict RegionPolicy = "strict"
	RegionWarn   RegionPolicy = "warn"
	RegionOff    RegionPolicy = "off"
)

// ParseRegionPolicy validates policy names. Empty means strict.
func ParseRegionPolicy(raw string) (RegionPolicy, error) {
	switch RegionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RegionStrict:
		return RegionStrict, nil
	case RegionWarn:
		return RegionWarn, nil
	case RegionOff:
		return RegionOff, nil
	default:
		return "", fmt.Errorf("invalid region policy %q; expected one of: strict, warn, off", raw)
	}
}

// Parser converts pasted strings into location-form patches. A Parser is
// immutable after construction and safe for concurrent use.
type Parser struct {
	policy RegionPolicy
	bounds domain.Bounds
	loose  bool
	labels bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithRegionPolicy sets the out-of-region behavior.
func WithRegionPolicy(policy RegionPolicy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// WithBounds overrides the region box.
func WithBounds(bounds domain.Bounds) Option {
	return func(p *Parser) {
		p.bounds = bounds
	}
}

// WithLooseFallback enables scanning for any lat,lng substring when no
// structured rule matched.
func WithLooseFallback(enabled bool) Option {
	return func(p *Parser) {
		p.loose = enabled
	}
}

// WithPlaceLabel toggles place label extraction.
func WithPlaceLabel(enabled bool) Option {
	return func(p *Parser) {
		p.labels = enabled
	}
}

// New creates a parser. Defaults: strict Indonesia bounds, labels on, no
// loose fallback.
func New(opts ...Option) *Parser {
	p := &Parser{
		policy: RegionStrict,
		bounds: domain.IndonesiaBounds,
		labels: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse runs the default parser.
func Parse(input string) (domain.ParsedLocationLink, error) {
	return defaultParser.Parse(input)
}

// Rules lists the rule names the parser tries, in order.
func (p *Parser) Rules() []string {
	names := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		names = append(names, r.name)
	}
	if p.loose {
		names = append(names, looseRule.name)
	}
	return names
}

// Parse extracts a coordinate from input. The first matching rule wins.
func (p *Parser) Parse(input string) (domain.ParsedLocationLink, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return domain.ParsedLocationLink{}, ErrEmptyInput
	}

	link, matched, err := p.match(input, trimmed)
	if err != nil {
		return domain.ParsedLocationLink{}, err
	}
	if !matched {
		if isShortened(trimmed) {
			return domain.ParsedLocationLink{}, ErrShortenedLink
		}
		return domain.ParsedLocationLink{}, ErrUnparseable
	}

	if p.labels {
		link.PlaceLabel = placeLabel(input)
	}

	warnings, err := p.CheckRegion(link.Location)
	if err != nil {
		return domain.ParsedLocationLink{}, err
	}
	link.Warnings = warnings
	return link, nil
}

// CheckRegion applies the region policy to loc. Under RegionWarn an
// out-of-region point yields a warning instead of an error.
func (p *Parser) CheckRegion(loc domain.Location) ([]string, error) {
	if p.policy == RegionOff || p.bounds.Contains(loc) {
		return nil, nil
	}
	if p.policy == RegionWarn {
		return []string{fmt.Sprintf("coordinates %s are outside the supported region", FormatCoordinate(loc))}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOutOfRegion, FormatCoordinate(loc))
}

func (p *Parser) match(input, trimmed string) (domain.ParsedLocationLink, bool, error) {
	candidates := rules
	if p.loose {
		candidates = append(candidates[:len(candidates):len(candidates)], looseRule)
	}
	for _, r := range candidates {
		subject := input
		if r.trimmed {
			subject = trimmed
		}
		groups := r.pattern.FindStringSubmatch(subject)
		if groups == nil {
			continue
		}
		link, err := r.extract(groups)
		return link, true, err
	}
	return domain.ParsedLocationLink{}, false, nil
}

func (r rule) extract(groups []string) (domain.ParsedLocationLink, error) {
	lat, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return domain.ParsedLocationLink{}, fmt.Errorf("%w: latitude %q", ErrUnparseable, groups[1])
	}
	lon, err := strconv.ParseFloat(groups[2], 64)
	if err != nil {
		return domain.ParsedLocationLink{}, fmt.Errorf("%w: longitude %q", ErrUnparseable, groups[2])
	}
	loc := domain.Location{Lat: lat, Lon: lon}
	if !loc.Valid() {
		return domain.ParsedLocationLink{}, fmt.Errorf("%w: %s is not a valid coordinate", ErrUnparseable, FormatCoordinate(loc))
	}

	zoom := domain.DefaultZoom
	if r.zoom && len(groups) > 3 {
		if z, err := strconv.ParseFloat(groups[3], 64); err == nil {
			zoom = int(math.Round(z))
		}
	}
	return domain.ParsedLocationLink{Location: loc, Zoom: zoom, Pattern: r.name}, nil
}

func placeLabel(input string) string {
	if groups := placeSegment.FindStringSubmatch(input); groups != nil {
		return decodeLabel(groups[1])
	}
	groups := mapsSegment.FindStringSubmatch(input)
	if groups == nil {
		return ""
	}
	segment := groups[1]
	if _, ok := reserved[strings.ToLower(segment)]; ok || strings.HasPrefix(segment, "data=") {
		return ""
	}
	return decodeLabel(segment)
}

func decodeLabel(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = strings.ReplaceAll(raw, "+", " ")
	}
	return strings.TrimSpace(decoded)
}

func isShortened(input string) bool {
	lower := strings.ToLower(input)
	for _, host := range shortHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// FormatCoordinate renders loc as "lat,lng" in a form Parse accepts.
func FormatCoordinate(loc domain.Location) string {
	return strconv.FormatFloat(loc.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Lon, 'f', -1, 64)
}

// MapsURL returns a Google Maps link centred on loc. The link parses back
// through the query rule.
func MapsURL(loc domain.Location) string {
	return "https://www.google.com/maps?q=" + FormatCoordinate(loc)
}
