// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the statistics computed for one year of the playback log:
//  1. [LoadingView] : Statistics are being computed from the local store
//  2. [SectionListView] : Browse the report sections (summary, monthly plays, rankings, singletons)
//  3. [EntryListView] : Browse the entries of one section
//  4. [SyncView] : Monitor a sync cycle started with the sync key
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Syncer, providing non-blocking status reporting during a sync.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
