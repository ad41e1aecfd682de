package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatsLoaded MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

type statsLoaded struct {
	result *models.AggregationResult
	err    error
}

// statsLoadedMsg is the constructor for [MsgStatsLoaded]
func statsLoadedMsg(result *models.AggregationResult, err error) Msg {
	return Msg{kind: MsgStatsLoaded, data: statsLoaded{result, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result tasks.CycleResult) Msg {
	return Msg{kind: MsgSyncComplete, data: result}
}
