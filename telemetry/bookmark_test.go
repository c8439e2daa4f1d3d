package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_TerritorySwing(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), BlueCount: 10, RedCount: 10, BlueShare: 0.3, RedShare: 0.3})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, BlueCount: 10, RedCount: 10, BlueShare: 0.6, RedShare: 0.1})
	if !hasBookmark(bookmarks, BookmarkTerritorySwing) {
		t.Error("expected territory_swing bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Population: 100, BlueCount: 50, RedCount: 50})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Population: 50, BlueCount: 25, RedCount: 25})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}
}

func TestBookmarkDetector_TeamNearExtinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 600, BlueCount: 12, RedCount: 12})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 1200, BlueCount: 12, RedCount: 1})
	if !hasBookmark(bookmarks, BookmarkTeamNearExtinction) {
		t.Fatal("expected team_near_extinction bookmark")
	}

	// Does not re-fire while the team stays small
	bookmarks = bd.Check(WindowStats{WindowEndTick: 1800, BlueCount: 12, RedCount: 1})
	if hasBookmark(bookmarks, BookmarkTeamNearExtinction) {
		t.Error("near-extinction fired twice without recovery")
	}
}

func TestBookmarkDetector_StableBorderOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 12; i++ {
		bms := bd.Check(WindowStats{WindowEndTick: int32(i * 600), BlueCount: 20, RedCount: 20, BlueShare: 0.45, RedShare: 0.45})
		if hasBookmark(bms, BookmarkStableBorder) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("stable_border fired %d times, want 1", fired)
	}
}
