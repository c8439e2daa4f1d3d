package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkTerritorySwing     BookmarkType = "territory_swing"
	BookmarkTeamNearExtinction BookmarkType = "team_near_extinction"
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkStableBorder       BookmarkType = "stable_border"
)

const (
	swingThreshold     = 0.15 // blue share change vs rolling mean
	nearExtinctionMax  = 2
	nearExtinctionFrom = 6 // team must have been at least this large first
	crashFraction      = 0.30
	stableWindows      = 5
	stableShareStd     = 0.02
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	popPeak      int    // peak population since last crash
	teamPeak     [2]int // peak per-team count since last near-extinction
	stableStreak int    // consecutive windows with a steady border
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindows {
		historySize = stableWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkTerritorySwing(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	bookmarks = append(bookmarks, bd.checkNearExtinction(stats)...)

	bd.addToHistory(stats)

	if b := bd.checkStableBorder(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if stats.Population > bd.popPeak {
		bd.popPeak = stats.Population
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n most recent windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	if n > count {
		n = count
	}
	out := make([]WindowStats, 0, n)
	for i := n; i > 0; i-- {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

func (bd *BookmarkDetector) checkTerritorySwing(stats WindowStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}
	shares := make([]float64, len(history))
	for i, h := range history {
		shares[i] = h.BlueShare
	}
	avg := stat.Mean(shares, nil)
	delta := stats.BlueShare - avg
	if math.Abs(delta) < swingThreshold {
		return nil
	}
	winner := "blue"
	if delta < 0 {
		winner = "red"
	}
	return &Bookmark{
		Type:        BookmarkTerritorySwing,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Blue share %.2f vs rolling %.2f, swing to %s", stats.BlueShare, avg, winner),
	}
}

func (bd *BookmarkDetector) checkNearExtinction(stats WindowStats) []Bookmark {
	var out []Bookmark
	counts := [2]int{stats.BlueCount, stats.RedCount}
	names := [2]string{"blue", "red"}
	for t := range counts {
		if counts[t] > bd.teamPeak[t] {
			bd.teamPeak[t] = counts[t]
			continue
		}
		if bd.teamPeak[t] >= nearExtinctionFrom && counts[t] <= nearExtinctionMax {
			out = append(out, Bookmark{
				Type:        BookmarkTeamNearExtinction,
				Tick:        stats.WindowEndTick,
				Description: fmt.Sprintf("Team %s fell from %d to %d", names[t], bd.teamPeak[t], counts[t]),
			})
			bd.teamPeak[t] = counts[t]
		}
	}
	return out
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.popPeak == 0 {
		return nil
	}
	drop := 1.0 - float64(stats.Population)/float64(bd.popPeak)
	if drop <= crashFraction || stats.Population >= bd.popPeak-5 {
		return nil
	}
	oldPeak := bd.popPeak
	bd.popPeak = stats.Population
	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population),
	}
}

func (bd *BookmarkDetector) checkStableBorder(stats WindowStats) *Bookmark {
	if stats.BlueCount == 0 || stats.RedCount == 0 {
		bd.stableStreak = 0
		return nil
	}
	history := bd.recent(stableWindows)
	if len(history) < stableWindows {
		return nil
	}
	shares := make([]float64, len(history))
	for i, h := range history {
		shares[i] = h.BlueShare
	}
	_, variance := stat.MeanVariance(shares, nil)
	if math.Sqrt(variance) < stableShareStd {
		bd.stableStreak++
	} else {
		bd.stableStreak = 0
	}
	if bd.stableStreak != 1 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableBorder,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Border steady at blue %.2f / red %.2f over %d windows", stats.BlueShare, stats.RedShare, stableWindows),
	}
}
