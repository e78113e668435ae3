package achievement

import (
	"fmt"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
)

// Track names the count a catalog classifies.
type Track string

const (
	// TrackOrganizer classifies events created by an organization.
	TrackOrganizer Track = "organizer"
	// TrackVolunteer classifies events a volunteer participated in.
	TrackVolunteer Track = "volunteer"
)

// ParseTrack validates track names. Empty means volunteer.
func ParseTrack(raw string) (Track, error) {
	switch Track(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TrackVolunteer:
		return TrackVolunteer, nil
	case TrackOrganizer:
		return TrackOrganizer, nil
	default:
		return "", fmt.Errorf("invalid track %q; expected one of: organizer, volunteer", raw)
	}
}

// ForTrack returns the built-in catalog for track.
func ForTrack(track Track) (*Catalog, error) {
	switch track {
	case TrackOrganizer:
		return Organizer, nil
	case TrackVolunteer:
		return Volunteer, nil
	default:
		return nil, fmt.Errorf("invalid track %q; expected one of: organizer, volunteer", track)
	}
}

func upTo(n int) *int {
	return &n
}

// Organizer is the organization event-creation catalog.
var Organizer = MustCatalog(TrackOrganizer, []domain.AchievementTier{
	{
		Level: 0, MinCount: 0, MaxCount: upTo(0),
		Title:         "New Organizer",
		Subtitle:      "No events created yet",
		Description:   "Create your first event to start earning badges.",
		ColorClass:    "text-gray-500",
		GradientClass: "from-gray-300 to-gray-500",
		Icon:          domain.IconBuilding,
	},
	{
		Level: 1, MinCount: 1, MaxCount: upTo(3),
		Title:         "Beginner Organizer",
		Description:   "The first events are live. Keep the momentum going.",
		ColorClass:    "text-green-600",
		GradientClass: "from-green-400 to-green-600",
		Icon:          domain.IconTarget,
	},
	{
		Level: 2, MinCount: 4, MaxCount: upTo(10),
		Title:         "Active Organizer",
		Description:   "Volunteers can count on a steady stream of events.",
		ColorClass:    "text-blue-600",
		GradientClass: "from-blue-400 to-blue-600",
		Icon:          domain.IconStar,
	},
	{
		Level: 3, MinCount: 11, MaxCount: upTo(25),
		Title:         "Experienced Organizer",
		Description:   "A proven track record of running community events.",
		ColorClass:    "text-purple-600",
		GradientClass: "from-purple-400 to-purple-600",
		Icon:          domain.IconAward,
	},
	{
		Level: 4, MinCount: 26, MaxCount: upTo(50),
		Title:         "Expert Organizer",
		Description:   "One of the most active organizations on the platform.",
		ColorClass:    "text-orange-600",
		GradientClass: "from-orange-400 to-red-500",
		Icon:          domain.IconTrophy,
	},
	{
		Level: 5, MinCount: 51,
		Title:         "Master Organizer",
		Description:   "A pillar of the volunteer community.",
		ColorClass:    "text-yellow-600",
		GradientClass: "from-yellow-400 to-amber-600",
		Icon:          domain.IconCrown,
	},
})

// Volunteer is the volunteer event-participation catalog.
var Volunteer = MustCatalog(TrackVolunteer, []domain.AchievementTier{
	{
		Level: 0, MinCount: 0, MaxCount: upTo(0),
		Title:         "New Volunteer",
		Subtitle:      "No events joined yet",
		Description:   "Join your first event to start earning badges.",
		ColorClass:    "text-gray-500",
		GradientClass: "from-gray-300 to-gray-500",
		Icon:          domain.IconTarget,
	},
	{
		Level: 1, MinCount: 1, MaxCount: upTo(3),
		Title:         "Beginner Volunteer",
		Description:   "You have taken the first steps. Welcome aboard.",
		ColorClass:    "text-green-600",
		GradientClass: "from-green-400 to-emerald-600",
		Icon:          domain.IconStar,
	},
	{
		Level: 2, MinCount: 4, MaxCount: upTo(10),
		Title:         "Active Volunteer",
		Description:   "You show up regularly and organizers notice.",
		ColorClass:    "text-blue-600",
		GradientClass: "from-sky-400 to-blue-600",
		Icon:          domain.IconAward,
	},
	{
		Level: 3, MinCount: 11, MaxCount: upTo(25),
		Title:         "Experienced Volunteer",
		Description:   "Your experience makes every event run smoother.",
		ColorClass:    "text-purple-600",
		GradientClass: "from-violet-400 to-purple-600",
		Icon:          domain.IconTrophy,
	},
	{
		Level: 4, MinCount: 26, MaxCount: upTo(50),
		Title:         "Expert Volunteer",
		Description:   "A role model for new volunteers.",
		ColorClass:    "text-orange-600",
		GradientClass: "from-amber-400 to-orange-600",
		Icon:          domain.IconBuilding,
	},
	{
		Level: 5, MinCount: 51,
		Title:         "Master Volunteer",
		Description:   "A legend of the volunteer community.",
		ColorClass:    "text-yellow-600",
		GradientClass: "from-yellow-300 to-yellow-600",
		Icon:          domain.IconCrown,
	},
})
