package tasks

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/shared"
)

// DefaultTopK is the ranking size used when none is configured.
const DefaultTopK = 10

const (
	columnDate      = "date"
	columnPerformer = "performer"
	columnTitle     = "title"
)

// columnAliases maps each canonical column to the header names accepted for it, in order of preference.
var columnAliases = map[string][]string{
	columnDate:      {"date"},
	columnPerformer: {"performer", "artist"},
	columnTitle:     {"title", "song"},
}

var monthToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// AnalysisOpts contains the optional dependencies of an [AnalysisEngine].
type AnalysisOpts struct {
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
	Clock    func() time.Time
}

// AnalysisEngine computes yearly playback statistics from the local store.
type AnalysisEngine struct {
	logger   *log.Logger
	progress chan<- ProgressUpdate
	now      func() time.Time
}

// NewAnalysisEngine creates an [AnalysisEngine].
func NewAnalysisEngine(opts AnalysisOpts) *AnalysisEngine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AnalysisEngine{logger: logger, progress: opts.Progress, now: clock}
}

// CurrentYear returns the calendar year at the moment of the call.
func (e *AnalysisEngine) CurrentYear() int {
	return e.now().Year()
}

// Load reads the store at path and returns its playback events.
//
// A missing store wraps [shared.ErrNotFound]; missing required columns wrap [shared.ErrSchema].
func (e *AnalysisEngine) Load(path string) ([]models.PlaybackEvent, error) {
	sendProgress(e.progress, loadEventsUpdate(path))

	store := repositories.NewEventStore(path)
	if !store.Exists() {
		return nil, fmt.Errorf("%w: store %s does not exist, run a sync first", shared.ErrNotFound, path)
	}

	table, err := store.Read()
	if err != nil {
		return nil, err
	}
	return EventsFromTable(table)
}

// EventsFromTable maps a table onto [models.PlaybackEvent] values.
//
// Headers are compared trimmed and case-insensitively. "artist" stands in for "performer" and "song" for "title"
// when the canonical column is absent. Any of date, performer or title still missing wraps [shared.ErrSchema].
func EventsFromTable(table *models.Table) ([]models.PlaybackEvent, error) {
	if table == nil {
		table = models.NewTable()
	}

	normalized := make(map[string]string, len(table.Columns))
	for _, col := range table.Columns {
		key := shared.NormalizeColumn(col)
		if _, ok := normalized[key]; !ok {
			normalized[key] = col
		}
	}

	source := make(map[string]string, len(columnAliases))
	var missing []string
	for _, canonical := range []string{columnDate, columnPerformer, columnTitle} {
		for _, alias := range columnAliases[canonical] {
			if col, ok := normalized[alias]; ok {
				source[canonical] = col
				break
			}
		}
		if _, ok := source[canonical]; !ok {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required column(s) %s (have %s)",
			shared.ErrSchema, strings.Join(missing, ", "), strings.Join(table.Columns, ", "))
	}

	events := make([]models.PlaybackEvent, 0, table.Len())
	for _, row := range table.Rows {
		events = append(events, models.PlaybackEvent{
			Date:      row[source[columnDate]],
			Performer: row[source[columnPerformer]],
			Title:     row[source[columnTitle]],
		})
	}
	return events, nil
}

// FilterByYear keeps the events whose date contains the decimal year anywhere in the string.
//
// This is a substring match, not a date parse: "May 12023x" matches 2023.
func FilterByYear(events []models.PlaybackEvent, year int) []models.PlaybackEvent {
	needle := strconv.Itoa(year)
	filtered := make([]models.PlaybackEvent, 0, len(events))
	for _, ev := range events {
		if strings.Contains(ev.Date, needle) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// MonthToken returns the first run of letters, digits or underscores in date.
func MonthToken(date string) (string, bool) {
	tok := monthToken.FindString(date)
	return tok, tok != ""
}

// MonthlyCounts counts events per [MonthToken], sorted by token string (so "April" precedes "January").
//
// Events whose date has no token are not counted.
func MonthlyCounts(events []models.PlaybackEvent) []models.ItemCount {
	counter := &models.Counter{}
	for _, ev := range events {
		if tok, ok := MonthToken(ev.Date); ok {
			counter.Add(tok)
		}
	}

	items := counter.Items()
	slices.SortFunc(items, func(a, b models.ItemCount) int {
		return strings.Compare(a.Name, b.Name)
	})
	if items == nil {
		items = []models.ItemCount{}
	}
	return items
}

// CountPerformers counts plays per performer in event order.
func CountPerformers(events []models.PlaybackEvent) *models.Counter {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Performer
	}
	return models.NewCounter(names...)
}

// CountTracks counts plays per track title in event order.
func CountTracks(events []models.PlaybackEvent) *models.Counter {
	titles := make([]string, len(events))
	for i, ev := range events {
		titles[i] = ev.Title
	}
	return models.NewCounter(titles...)
}

// TopK returns at most k entries of counter by descending count; equal counts keep the counter's first-seen order.
func TopK(counter *models.Counter, k int) []models.ItemCount {
	if k <= 0 || counter.Len() == 0 {
		return []models.ItemCount{}
	}

	items := counter.Items()
	slices.SortStableFunc(items, func(a, b models.ItemCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return items[:min(k, len(items))]
}

// SingletonItems returns the names counted exactly once, in first-seen order.
func SingletonItems(counter *models.Counter) []string {
	singles := []string{}
	for _, item := range counter.Items() {
		if item.Count == 1 {
			singles = append(singles, item.Name)
		}
	}
	return singles
}

// Summarize builds the headline numbers for a set of events and its counters.
func Summarize(total int, performers, tracks *models.Counter, singlePerformers, singleTracks []string) models.Summary {
	return models.Summary{
		TotalEvents:         total,
		DistinctPerformers:  performers.Len(),
		DistinctTracks:      tracks.Len(),
		SingletonPerformers: len(singlePerformers),
		SingletonTracks:     len(singleTracks),
	}
}

// Aggregate computes the full [models.AggregationResult] for events, which must already be filtered to year.
func Aggregate(events []models.PlaybackEvent, year, k int) *models.AggregationResult {
	performers := CountPerformers(events)
	tracks := CountTracks(events)
	singlePerformers := SingletonItems(performers)
	singleTracks := SingletonItems(tracks)

	return &models.AggregationResult{
		Year:                year,
		TopK:                k,
		MonthlyCounts:       MonthlyCounts(events),
		TopPerformers:       TopK(performers, k),
		TopTracks:           TopK(tracks, k),
		SingletonPerformers: singlePerformers,
		SingletonTracks:     singleTracks,
		Summary:             Summarize(len(events), performers, tracks, singlePerformers, singleTracks),
	}
}

// Analyze loads the store at path and aggregates the given year.
//
// A year of 0 means the current year at call time. A k of 0 means [DefaultTopK]; a negative k yields empty rankings.
func (e *AnalysisEngine) Analyze(path string, year, k int) (*models.AggregationResult, error) {
	if year == 0 {
		year = e.CurrentYear()
	}
	if k == 0 {
		k = DefaultTopK
	}

	events, err := e.Load(path)
	if err != nil {
		return nil, err
	}

	filtered := FilterByYear(events, year)
	sendProgress(e.progress, aggregateUpdate(year, len(filtered)))

	result := Aggregate(filtered, year, k)
	e.logger.Debug("analysis complete",
		"path", path,
		"year", year,
		"events", len(events),
		"matched", len(filtered),
		"performers", result.Summary.DistinctPerformers,
		"tracks", result.Summary.DistinctTracks)

	return result, nil
}
