package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/playlog/internal/formatter"
	"github.com/desertthunder/playlog/internal/models"
)

var (
	_ list.Item = sectionItem{}
	_ list.Item = entryItem{}
)

// sectionItem is one browsable part of a [models.AggregationResult].
type sectionItem struct {
	title   string
	entries []entryItem
}

func (i sectionItem) FilterValue() string { return i.title }
func (i sectionItem) Title() string       { return i.title }
func (i sectionItem) Description() string {
	if len(i.entries) == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", len(i.entries))
}

// entryItem is a name with a detail line (play count or summary value).
type entryItem struct {
	name   string
	detail string
}

func (i entryItem) FilterValue() string { return i.name }
func (i entryItem) Title() string {
	if i.name == "" {
		return "(blank)"
	}
	return i.name
}
func (i entryItem) Description() string { return i.detail }

func countEntries(items []models.ItemCount) []entryItem {
	entries := make([]entryItem, len(items))
	for i, item := range items {
		plays := "plays"
		if item.Count == 1 {
			plays = "play"
		}
		entries[i] = entryItem{name: item.Name, detail: fmt.Sprintf("%d %s", item.Count, plays)}
	}
	return entries
}

func nameEntries(names []string, detail string) []entryItem {
	entries := make([]entryItem, len(names))
	for i, name := range names {
		entries[i] = entryItem{name: name, detail: detail}
	}
	return entries
}

// buildSections splits a result into the sections shown on the first screen.
func buildSections(result *models.AggregationResult) []sectionItem {
	summary := make([]entryItem, 0, 5)
	for _, row := range formatter.SummaryRows(result.Summary) {
		summary = append(summary, entryItem{name: row[0], detail: row[1]})
	}

	return []sectionItem{
		{title: "Summary", entries: summary},
		{title: "Monthly plays", entries: countEntries(result.MonthlyCounts)},
		{title: fmt.Sprintf("Top %d artists", result.TopK), entries: countEntries(result.TopPerformers)},
		{title: fmt.Sprintf("Top %d songs", result.TopK), entries: countEntries(result.TopTracks)},
		{title: "Artists with one play", entries: nameEntries(result.SingletonPerformers, "1 play")},
		{title: "Songs with one play", entries: nameEntries(result.SingletonTracks, "1 play")},
	}
}
