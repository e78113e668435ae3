// Package achievement classifies event counts into badge tiers.
package achievement

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
)

// ErrInvalidCatalog is returned by NewCatalog for tables that do not cover
// [0, ∞) exactly once.
var ErrInvalidCatalog = errors.New("invalid tier catalog")

// Catalog is an immutable, validated tier table. It is safe for concurrent use.
type Catalog struct {
	track Track
	tiers []domain.AchievementTier
}

// NewCatalog validates tiers and builds a catalog. Tiers must be ordered by
// level starting at 0, start at count 0, be contiguous, and end with a
// single unbounded tier.
func NewCatalog(track Track, tiers []domain.AchievementTier) (*Catalog, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidCatalog)
	}
	if tiers[0].MinCount != 0 {
		return nil, fmt.Errorf("%w: first tier starts at %d", ErrInvalidCatalog, tiers[0].MinCount)
	}
	for i, tier := range tiers {
		if tier.Level != i {
			return nil, fmt.Errorf("%w: tier %d has level %d", ErrInvalidCatalog, i, tier.Level)
		}
		last := i == len(tiers)-1
		if tier.Unbounded() != last {
			return nil, fmt.Errorf("%w: only the last tier may be unbounded (level %d)", ErrInvalidCatalog, tier.Level)
		}
		if !last && *tier.MaxCount < tier.MinCount {
			return nil, fmt.Errorf("%w: level %d ends before it starts", ErrInvalidCatalog, tier.Level)
		}
		if i > 0 && tier.MinCount != *tiers[i-1].MaxCount+1 {
			return nil, fmt.Errorf("%w: gap or overlap before level %d", ErrInvalidCatalog, tier.Level)
		}
	}

	owned := make([]domain.AchievementTier, len(tiers))
	for i, tier := range tiers {
		owned[i] = cloneTier(tier)
	}
	return &Catalog{track: track, tiers: owned}, nil
}

// MustCatalog is NewCatalog for static tables.
func MustCatalog(track Track, tiers []domain.AchievementTier) *Catalog {
	catalog, err := NewCatalog(track, tiers)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Track returns the catalog's track.
func (c *Catalog) Track() Track {
	return c.track
}

// Tiers returns a copy of the tier table. Tiers without a static subtitle
// get one describing their range, such as "4-10 events" or "51+ events".
func (c *Catalog) Tiers() []domain.AchievementTier {
	out := make([]domain.AchievementTier, len(c.tiers))
	for i, tier := range c.tiers {
		out[i] = cloneTier(tier)
		if strings.TrimSpace(out[i].Subtitle) == "" {
			out[i].Subtitle = rangeSubtitle(out[i])
		}
	}
	return out
}

// MaxLevel is the level of the unbounded tier.
func (c *Catalog) MaxLevel() int {
	return c.tiers[len(c.tiers)-1].Level
}

// Classify returns the tier containing count. Negative counts are treated
// as zero. An empty catalog subtitle is filled with "<n> event(s)".
func (c *Catalog) Classify(count int) domain.AchievementTier {
	count = max(count, 0)
	tier := cloneTier(c.tiers[c.index(count)])
	if strings.TrimSpace(tier.Subtitle) == "" {
		tier.Subtitle = eventCount(count)
	}
	return tier
}

// Progress reports the distance from count to the next tier.
func (c *Catalog) Progress(count int) domain.ProgressResult {
	count = max(count, 0)
	current := c.tiers[c.index(count)]
	if current.Unbounded() {
		return domain.ProgressResult{
			CurrentLevel:       current.Level,
			EventsNeeded:       0,
			ProgressPercentage: 100,
			IsMaxLevel:         true,
		}
	}

	next := c.tiers[current.Level+1]
	span := float64(*current.MaxCount - current.MinCount + 1)
	percentage := float64(count-current.MinCount) / span * 100
	nextLevel := next.Level
	return domain.ProgressResult{
		CurrentLevel:       current.Level,
		NextLevel:          &nextLevel,
		EventsNeeded:       max(0, next.MinCount-count),
		ProgressPercentage: min(100, max(0, percentage)),
	}
}

// CheckLevelUp compares two counts. NewTier is set only when the current
// count reached a higher level than the previous one.
func (c *Catalog) CheckLevelUp(previousCount, currentCount int) domain.LevelUp {
	previous := c.Classify(previousCount)
	current := c.Classify(currentCount)
	result := domain.LevelUp{
		PreviousLevel: previous.Level,
		NewLevel:      current.Level,
	}
	if current.Level > previous.Level {
		result.HasLeveledUp = true
		result.NewTier = &current
	}
	return result
}

func (c *Catalog) index(count int) int {
	return sort.Search(len(c.tiers), func(i int) bool {
		return c.tiers[i].MinCount > count
	}) - 1
}

func cloneTier(tier domain.AchievementTier) domain.AchievementTier {
	if tier.MaxCount != nil {
		bound := *tier.MaxCount
		tier.MaxCount = &bound
	}
	return tier
}

func rangeSubtitle(tier domain.AchievementTier) string {
	switch {
	case tier.Unbounded():
		return fmt.Sprintf("%d+ events", tier.MinCount)
	case *tier.MaxCount == tier.MinCount:
		return eventCount(tier.MinCount)
	default:
		return fmt.Sprintf("%d-%d events", tier.MinCount, *tier.MaxCount)
	}
}

func eventCount(count int) string {
	if count == 1 {
		return "1 event"
	}
	return fmt.Sprintf("%d events", count)
}
