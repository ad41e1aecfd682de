// package formatter provides functions to export playback statistics to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
)

// Format is an output format for [WriteReport].
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
	}
}

// SummaryRows returns the summary as labelled (metric, value) pairs in display order.
func SummaryRows(s models.Summary) [][2]string {
	return [][2]string{
		{"Total Songs Played", strconv.Itoa(s.TotalEvents)},
		{"Total Different Artists", strconv.Itoa(s.DistinctPerformers)},
		{"Total Different Songs", strconv.Itoa(s.DistinctTracks)},
		{"Artists with One Play", strconv.Itoa(s.SingletonPerformers)},
		{"Songs with One Play", strconv.Itoa(s.SingletonTracks)},
	}
}

// ExportToJSON encodes the full result.
func ExportToJSON(result *models.AggregationResult, pretty bool) ([]byte, error) {
	data, err := shared.MarshalJSON(result, pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func countRecords(items []models.ItemCount) [][]string {
	records := make([][]string, len(items))
	for i, item := range items {
		records[i] = []string{item.Name, strconv.Itoa(item.Count)}
	}
	return records
}

// ExportSectionsToCSV renders each section of the result as its own CSV document, keyed by file suffix.
func ExportSectionsToCSV(result *models.AggregationResult) (map[string][]byte, error) {
	singletons := make([][]string, 0, len(result.SingletonPerformers)+len(result.SingletonTracks))
	for _, name := range result.SingletonPerformers {
		singletons = append(singletons, []string{"artist", name})
	}
	for _, name := range result.SingletonTracks {
		singletons = append(singletons, []string{"song", name})
	}

	summary := make([][]string, 0, 5)
	for _, row := range SummaryRows(result.Summary) {
		summary = append(summary, []string{row[0], row[1]})
	}

	sections := []struct {
		suffix  string
		headers []string
		records [][]string
	}{
		{"monthly", []string{"Month", "Count"}, countRecords(result.MonthlyCounts)},
		{"top_performers", []string{"Artist", "Plays"}, countRecords(result.TopPerformers)},
		{"top_tracks", []string{"Song", "Plays"}, countRecords(result.TopTracks)},
		{"singletons", []string{"Kind", "Name"}, singletons},
		{"summary", []string{"Metric", "Value"}, summary},
	}

	out := make(map[string][]byte, len(sections))
	for _, s := range sections {
		data, err := writeCSV(s.headers, s.records)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.suffix, err)
		}
		out[s.suffix] = data
	}
	return out, nil
}

// CSVSections lists the file suffixes produced by [ExportSectionsToCSV], in write order.
var CSVSections = []string{"monthly", "top_performers", "top_tracks", "singletons", "summary"}

// ExportToMarkdown renders the result as a Markdown document.
func ExportToMarkdown(result *models.AggregationResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Playback Analysis %d\n\n", result.Year)

	buf.WriteString("## Summary\n\n| Metric | Value |\n| --- | ---: |\n")
	for _, row := range SummaryRows(result.Summary) {
		fmt.Fprintf(&buf, "| %s | %s |\n", row[0], row[1])
	}

	writeTable := func(title, label string, items []models.ItemCount) {
		fmt.Fprintf(&buf, "\n## %s\n\n", title)
		if len(items) == 0 {
			buf.WriteString("_None_\n")
			return
		}
		fmt.Fprintf(&buf, "| %s | Plays |\n| --- | ---: |\n", label)
		for _, item := range items {
			fmt.Fprintf(&buf, "| %s | %d |\n", escapeMarkdownCell(item.Name), item.Count)
		}
	}

	writeList := func(title string, names []string) {
		fmt.Fprintf(&buf, "\n## %s\n\n", title)
		if len(names) == 0 {
			buf.WriteString("_None_\n")
			return
		}
		for _, name := range names {
			fmt.Fprintf(&buf, "- %s\n", name)
		}
	}

	writeTable("Monthly Plays", "Month", result.MonthlyCounts)
	writeTable(fmt.Sprintf("Top %d Artists", result.TopK), "Artist", result.TopPerformers)
	writeTable(fmt.Sprintf("Top %d Songs", result.TopK), "Song", result.TopTracks)
	writeList("Artists with One Play", result.SingletonPerformers)
	writeList("Songs with One Play", result.SingletonTracks)

	return buf.Bytes(), nil
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText renders the result as plain text.
func ExportToText(result *models.AggregationResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playback analysis for %d\n\n", result.Year)
	for _, row := range SummaryRows(result.Summary) {
		fmt.Fprintf(&buf, "%s: %s\n", row[0], row[1])
	}

	buf.WriteString("\nMonthly plays:\n")
	for _, item := range result.MonthlyCounts {
		fmt.Fprintf(&buf, "  %s: %d\n", item.Name, item.Count)
	}

	fmt.Fprintf(&buf, "\nTop %d artists:\n", result.TopK)
	for i, item := range result.TopPerformers {
		fmt.Fprintf(&buf, "%d. %s (%d)\n", i+1, item.Name, item.Count)
	}

	fmt.Fprintf(&buf, "\nTop %d songs:\n", result.TopK)
	for i, item := range result.TopTracks {
		fmt.Fprintf(&buf, "%d. %s (%d)\n", i+1, item.Name, item.Count)
	}

	fmt.Fprintf(&buf, "\nArtists with one play: %d\n", len(result.SingletonPerformers))
	for _, name := range result.SingletonPerformers {
		fmt.Fprintf(&buf, "  %s\n", name)
	}
	fmt.Fprintf(&buf, "\nSongs with one play: %d\n", len(result.SingletonTracks))
	for _, name := range result.SingletonTracks {
		fmt.Fprintf(&buf, "  %s\n", name)
	}

	return buf.Bytes(), nil
}

// WriteReport saves the result to path in the given format and returns the files written.
//
// The CSV format writes one file per section next to path: {base}_monthly.csv, {base}_top_performers.csv, etc.,
// where base is path without its extension.
func WriteReport(result *models.AggregationResult, format Format, path string) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no result to write", shared.ErrInvalidArgument)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON, "":
		data, err = ExportToJSON(result, true)
	case FormatMarkdown:
		data, err = ExportToMarkdown(result)
	case FormatText:
		data, err = ExportToText(result)
	case FormatCSV:
		return writeCSVExport(result, path)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

func writeCSVExport(result *models.AggregationResult, path string) ([]string, error) {
	sections, err := ExportSectionsToCSV(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	files := make([]string, 0, len(CSVSections))
	for _, suffix := range CSVSections {
		file := fmt.Sprintf("%s_%s.csv", base, suffix)
		if err := os.WriteFile(file, sections[suffix], 0644); err != nil {
			return files, fmt.Errorf("failed to write CSV file: %w", err)
		}
		files = append(files, file)
	}
	return files, nil
}
