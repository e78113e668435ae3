package achievement

import (
	"errors"
	"math"
	"testing"

	"github.com/relawanhub/relawan/internal/domain"
)

var catalogs = []*Catalog{Organizer, Volunteer}

func TestClassifyBoundaries(t *testing.T) {
	cases := map[int]int{
		0: 0, 1: 1, 3: 1, 4: 2, 10: 2, 11: 3, 25: 3, 26: 4, 50: 4, 51: 5, 10000: 5,
	}
	for _, catalog := range catalogs {
		for count, want := range cases {
			if got := catalog.Classify(count).Level; got != want {
				t.Fatalf("%s: classify(%d) expected level %d, got %d", catalog.Track(), count, want, got)
			}
		}
	}
}

func TestClassifyClampsNegativeCounts(t *testing.T) {
	for _, catalog := range catalogs {
		negative := catalog.Classify(-5)
		zero := catalog.Classify(0)
		if negative.Level != zero.Level || negative.Title != zero.Title || negative.Subtitle != zero.Subtitle {
			t.Fatalf("%s: expected classify(-5) to equal classify(0), got %+v", catalog.Track(), negative)
		}
		if negative.Level != 0 {
			t.Fatalf("%s: expected level 0, got %d", catalog.Track(), negative.Level)
		}
	}
}

func TestClassifyExactlyOneTierMatches(t *testing.T) {
	for _, catalog := range catalogs {
		tiers := catalog.Tiers()
		for count := 0; count <= 200; count++ {
			matches := 0
			for _, tier := range tiers {
				if tier.Contains(count) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("%s: count %d matched %d tiers", catalog.Track(), count, matches)
			}
			if got := catalog.Classify(count); !got.Contains(count) {
				t.Fatalf("%s: classify(%d) returned level %d which does not contain it", catalog.Track(), count, got.Level)
			}
		}
		for _, tier := range tiers {
			for _, count := range []int{tier.MinCount - 1, tier.MinCount, tier.MinCount + 1} {
				if count < 0 {
					continue
				}
				if got := catalog.Classify(count); !got.Contains(count) {
					t.Fatalf("%s: boundary %d classified into level %d", catalog.Track(), count, got.Level)
				}
			}
		}
	}
}

func TestClassifySubtitle(t *testing.T) {
	if got := Volunteer.Classify(0).Subtitle; got != "No events joined yet" {
		t.Fatalf("unexpected level 0 subtitle %q", got)
	}
	if got := Volunteer.Classify(1).Subtitle; got != "1 event" {
		t.Fatalf("expected singular subtitle, got %q", got)
	}
	if got := Organizer.Classify(27).Subtitle; got != "27 events" {
		t.Fatalf("expected plural subtitle, got %q", got)
	}
}

func TestClassifyDoesNotLeakCatalogState(t *testing.T) {
	tier := Volunteer.Classify(5)
	*tier.MaxCount = 999
	if got := *Volunteer.Classify(5).MaxCount; got != 10 {
		t.Fatalf("expected catalog to be unaffected, got max %d", got)
	}
}

func TestProgressAtMaxLevel(t *testing.T) {
	for _, count := range []int{51, 300} {
		got := Volunteer.Progress(count)
		if !got.IsMaxLevel || got.EventsNeeded != 0 || got.ProgressPercentage != 100 || got.NextLevel != nil {
			t.Fatalf("count %d: unexpected max level progress %+v", count, got)
		}
		if got.CurrentLevel != 5 {
			t.Fatalf("count %d: expected level 5, got %d", count, got.CurrentLevel)
		}
	}
}

func TestProgressFromZero(t *testing.T) {
	got := Organizer.Progress(0)
	if got.NextLevel == nil || *got.NextLevel != 1 {
		t.Fatalf("expected next level 1, got %+v", got.NextLevel)
	}
	if got.EventsNeeded != 1 {
		t.Fatalf("expected 1 event needed, got %d", got.EventsNeeded)
	}
	if got.ProgressPercentage != 0 {
		t.Fatalf("expected 0%%, got %v", got.ProgressPercentage)
	}
}

func TestProgressMidTier(t *testing.T) {
	got := Volunteer.Progress(7)
	if got.CurrentLevel != 2 {
		t.Fatalf("expected level 2, got %d", got.CurrentLevel)
	}
	if got.ProgressPercentage <= 0 || got.ProgressPercentage >= 100 {
		t.Fatalf("expected progress strictly between 0 and 100, got %v", got.ProgressPercentage)
	}
	if got.EventsNeeded != 4 {
		t.Fatalf("expected 4 events needed, got %d", got.EventsNeeded)
	}
	want := 300.0 / 7.0
	if math.Abs(got.ProgressPercentage-want) > 1e-9 {
		t.Fatalf("expected %v%%, got %v", want, got.ProgressPercentage)
	}
}

func TestProgressClampsNegativeCounts(t *testing.T) {
	if got, want := Volunteer.Progress(-3), Volunteer.Progress(0); got.EventsNeeded != want.EventsNeeded || got.ProgressPercentage != want.ProgressPercentage {
		t.Fatalf("expected progress(-3) to equal progress(0), got %+v", got)
	}
}

func TestCheckLevelUp(t *testing.T) {
	up := Volunteer.CheckLevelUp(3, 4)
	if !up.HasLeveledUp || up.PreviousLevel != 1 || up.NewLevel != 2 {
		t.Fatalf("expected level up 1 -> 2, got %+v", up)
	}
	if up.NewTier == nil || up.NewTier.Title != "Active Volunteer" {
		t.Fatalf("expected new tier metadata, got %+v", up.NewTier)
	}

	same := Volunteer.CheckLevelUp(5, 9)
	if same.HasLeveledUp || same.NewTier != nil {
		t.Fatalf("expected no level up within tier 2, got %+v", same)
	}

	down := Organizer.CheckLevelUp(30, 2)
	if down.HasLeveledUp || down.NewTier != nil || down.NewLevel != 1 {
		t.Fatalf("expected no level up when count drops, got %+v", down)
	}
}

func TestNewCatalogRejectsInvalidTables(t *testing.T) {
	cases := map[string][]domain.AchievementTier{
		"empty": nil,
		"floor above zero": {
			{Level: 0, MinCount: 1},
		},
		"gap": {
			{Level: 0, MinCount: 0, MaxCount: upTo(2)},
			{Level: 1, MinCount: 4},
		},
		"overlap": {
			{Level: 0, MinCount: 0, MaxCount: upTo(5)},
			{Level: 1, MinCount: 5},
		},
		"bounded last tier": {
			{Level: 0, MinCount: 0, MaxCount: upTo(5)},
			{Level: 1, MinCount: 6, MaxCount: upTo(10)},
		},
		"unbounded middle tier": {
			{Level: 0, MinCount: 0},
			{Level: 1, MinCount: 6},
		},
		"level out of order": {
			{Level: 0, MinCount: 0, MaxCount: upTo(5)},
			{Level: 2, MinCount: 6},
		},
	}
	for name, tiers := range cases {
		if _, err := NewCatalog(TrackVolunteer, tiers); !errors.Is(err, ErrInvalidCatalog) {
			t.Fatalf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}
}

func TestParseTrack(t *testing.T) {
	cases := map[string]Track{"": TrackVolunteer, "Volunteer": TrackVolunteer, " organizer ": TrackOrganizer}
	for raw, want := range cases {
		got, err := ParseTrack(raw)
		if err != nil || got != want {
			t.Fatalf("raw %q: expected %q, got %q (%v)", raw, want, got, err)
		}
	}
	if _, err := ParseTrack("donor"); err == nil {
		t.Fatal("expected error for unknown track")
	}
}

func TestForTrack(t *testing.T) {
	catalog, err := ForTrack(TrackOrganizer)
	if err != nil || catalog != Organizer {
		t.Fatalf("expected organizer catalog, got %v (%v)", catalog, err)
	}
	if _, err := ForTrack("donor"); err == nil {
		t.Fatal("expected error for unknown track")
	}
	if Organizer.MaxLevel() != 5 || len(Organizer.Tiers()) != 6 {
		t.Fatalf("unexpected organizer catalog shape")
	}
}

func TestTiersDescribeTheirRange(t *testing.T) {
	want := []string{"No events joined yet", "1-3 events", "4-10 events", "11-25 events", "26-50 events", "51+ events"}
	tiers := Volunteer.Tiers()
	for i, tier := range tiers {
		if tier.Subtitle != want[i] {
			t.Fatalf("level %d: expected subtitle %q, got %q", tier.Level, want[i], tier.Subtitle)
		}
	}

	single := MustCatalog(TrackVolunteer, []domain.AchievementTier{
		{Level: 0, MinCount: 0, MaxCount: upTo(0)},
		{Level: 1, MinCount: 1, MaxCount: upTo(1)},
		{Level: 2, MinCount: 2},
	})
	got := single.Tiers()
	if got[0].Subtitle != "0 events" || got[1].Subtitle != "1 event" || got[2].Subtitle != "2+ events" {
		t.Fatalf("unexpected subtitles %q %q %q", got[0].Subtitle, got[1].Subtitle, got[2].Subtitle)
	}
	if Volunteer.Classify(5).Subtitle != "5 events" {
		t.Fatal("classify must keep the count subtitle")
	}
}
