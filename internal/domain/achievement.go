package domain

// IconID is a symbolic badge icon resolved to artwork by the renderer.
type IconID string

const (
	IconTrophy   IconID = "trophy"
	IconStar     IconID = "star"
	IconTarget   IconID = "target"
	IconAward    IconID = "award"
	IconBuilding IconID = "building"
	IconCrown    IconID = "crown"
)

// AchievementTier is one entry of a badge catalog.
type AchievementTier struct {
	Level         int    `json:"level" yaml:"level"`
	MinCount      int    `json:"min_count" yaml:"min_count"`
	MaxCount      *int   `json:"max_count" yaml:"max_count"`
	Title         string `json:"title" yaml:"title"`
	Subtitle      string `json:"subtitle" yaml:"subtitle"`
	Description   string `json:"description" yaml:"description"`
	ColorClass    string `json:"color_class" yaml:"color_class"`
	GradientClass string `json:"gradient_class" yaml:"gradient_class"`
	Icon          IconID `json:"icon" yaml:"icon"`
}

// Unbounded reports whether the tier has no upper limit.
func (t AchievementTier) Unbounded() bool {
	return t.MaxCount == nil
}

// Contains reports whether count falls inside the tier range.
func (t AchievementTier) Contains(count int) bool {
	if count < t.MinCount {
		return false
	}
	return t.MaxCount == nil || count <= *t.MaxCount
}

// ProgressResult describes how far a count is from the next tier.
type ProgressResult struct {
	CurrentLevel       int     `json:"current_level" yaml:"current_level"`
	NextLevel          *int    `json:"next_level" yaml:"next_level"`
	EventsNeeded       int     `json:"events_needed" yaml:"events_needed"`
	ProgressPercentage float64 `json:"progress_percentage" yaml:"progress_percentage"`
	IsMaxLevel         bool    `json:"is_max_level" yaml:"is_max_level"`
}

// LevelUp is the outcome of comparing two counts.
type LevelUp struct {
	HasLeveledUp  bool             `json:"has_leveled_up" yaml:"has_leveled_up"`
	PreviousLevel int              `json:"previous_level" yaml:"previous_level"`
	NewLevel      int              `json:"new_level" yaml:"new_level"`
	NewTier       *AchievementTier `json:"new_tier" yaml:"new_tier"`
}
