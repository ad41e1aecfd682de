package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SectionListView
	EntryListView
	SyncView
)

// StatsLoader computes the statistics shown by the TUI (tasks.AnalysisEngine).
type StatsLoader interface {
	Analyze(path string, year, k int) (*models.AggregationResult, error)
}

// SyncRunner runs one ingestion cycle (tasks.Syncer).
type SyncRunner interface {
	RunOnce(ctx context.Context) tasks.CycleResult
}

// SyncFactory builds a [SyncRunner] that reports its progress on progress.
type SyncFactory func(progress chan<- tasks.ProgressUpdate) SyncRunner

// Options configures the statistics shown and whether syncing from the TUI is possible.
type Options struct {
	StorePath string
	Year      int
	TopK      int
	Sync      SyncFactory // nil disables the sync key
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	stats        StatsLoader
	opts         Options
	width        int
	height       int
	sectionList  list.Model
	entryList    list.Model
	result       *models.AggregationResult
	progressChan chan tasks.ProgressUpdate
	syncDone     chan tasks.CycleResult
	progress     tasks.ProgressUpdate
	lastSync     *tasks.CycleResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, stats StatsLoader, opts Options) *Model {
	return &Model{
		ctx:         ctx,
		view:        LoadingView,
		stats:       stats,
		opts:        opts,
		sectionList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		entryList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by loading statistics from the store.
func (m *Model) Init() tea.Cmd {
	return m.loadStats()
}

// ViewState returns the view currently shown.
func (m *Model) ViewState() ViewState { return m.view }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sectionList.SetSize(m.listWidth(), m.listHeight())
		m.entryList.SetSize(m.listWidth(), m.listHeight())
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SectionListView:
			return m.handleSectionKeys(msg)
		case EntryListView:
			return m.handleEntryKeys(msg)
		case LoadingView, SyncView:
			if key.Matches(msg, m.keys.quit) && msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStatsLoaded:
		data := msg.data.(statsLoaded)
		m.view = SectionListView
		m.err = data.err
		if data.err != nil {
			return m, nil
		}
		m.result = data.result
		sections := buildSections(data.result)
		items := make([]list.Item, len(sections))
		for i, s := range sections {
			items[i] = s
		}
		m.sectionList.Title = fmt.Sprintf("Playback %d", data.result.Year)
		return m, m.sectionList.SetItems(items)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		result := msg.data.(tasks.CycleResult)
		m.lastSync = &result
		m.progressChan = nil
		m.syncDone = nil
		m.view = LoadingView
		return m, m.loadStats()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return styles.help.Render("Loading statistics...")
	case SectionListView:
		if m.err != nil {
			return m.renderError()
		}
		return m.renderSections()
	case EntryListView:
		return m.renderEntries()
	case SyncView:
		return m.renderSync()
	default:
		return ""
	}
}

func (m *Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sectionList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.sync):
		if m.opts.Sync != nil {
			m.view = SyncView
			m.progress = tasks.ProgressUpdate{Message: "Starting sync..."}
			return m, m.startSync()
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.view = LoadingView
		return m, m.loadStats()
	case key.Matches(msg, m.keys.enter):
		if m.err != nil {
			return m, nil
		}
		if section, ok := m.sectionList.SelectedItem().(sectionItem); ok {
			m.openSection(section)
			return m, nil
		}
	}

	if m.err != nil {
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleEntryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entryList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SectionListView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) openSection(section sectionItem) {
	items := make([]list.Item, len(section.entries))
	for i, e := range section.entries {
		items[i] = e
	}
	m.entryList.ResetFilter()
	m.entryList.SetItems(items)
	m.entryList.ResetSelected()
	m.entryList.Title = section.title
	m.view = EntryListView
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SectionListView:
		m.sectionList, cmd = m.sectionList.Update(msg)
	case EntryListView:
		m.entryList, cmd = m.entryList.Update(msg)
	}
	return m, cmd
}

func (m *Model) listWidth() int  { return max(0, m.width-4) }
func (m *Model) listHeight() int { return max(0, m.height-8) }

func (m *Model) loadStats() tea.Cmd {
	stats, opts := m.stats, m.opts
	return func() tea.Msg {
		result, err := stats.Analyze(opts.StorePath, opts.Year, opts.TopK)
		return statsLoadedMsg(result, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan tasks.CycleResult, 1)
	m.progressChan, m.syncDone = progress, done

	runner := m.opts.Sync(progress)
	ctx := m.ctx
	go func() {
		done <- runner.RunOnce(ctx)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.syncDone
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return syncCompleteMsg(<-done)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderError() string {
	hint := "Press r to reload, q to quit"
	if m.opts.Sync != nil {
		hint = "Press s to sync, r to reload, q to quit"
	}
	return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), styles.help.Render(hint))
}

func (m *Model) renderSections() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	if m.opts.Sync != nil {
		helpKeys = []key.Binding{m.keys.enter, m.keys.sync, m.keys.reload, m.keys.quit}
	}
	return fmt.Sprintf("%s\n%s\n%s", m.sectionList.View(), m.renderLastSync(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEntries() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.entryList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing playback log")

	step := ""
	if m.progress.Total > 0 {
		step = fmt.Sprintf("(%d/%d) ", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n\n%s%s", title, step, m.progress.Message)
}

func (m *Model) renderLastSync() string {
	if m.lastSync == nil {
		return ""
	}
	if m.lastSync.Err != nil {
		return styles.warn.Render(fmt.Sprintf("Last sync failed: %v", m.lastSync.Err))
	}
	r := m.lastSync.Report
	return styles.ok.Render(fmt.Sprintf("✓ Synced: +%d rows, %d duplicates dropped, %d total", r.AddedRows(), r.DroppedDuplicates, r.TotalRows))
}
