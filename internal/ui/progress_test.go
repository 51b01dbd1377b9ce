package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kestrel/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("scopes", []string{"a.toml", "b.toml"}, events).(*progressModel)

	m.Update(eventMsg{File: "a.toml", Stage: driver.StageCheck, Status: driver.StatusWorking})
	m.Update(eventMsg{File: "b.toml", Stage: driver.StageEval, Status: driver.StatusError})
	m.Update(eventMsg{File: "unknown.toml", Stage: driver.StageEval, Status: driver.StatusDone})

	if m.items[0].status != "checking" || m.items[1].status != "failed" {
		t.Fatalf("items = %+v", m.items)
	}
	if got := m.fraction(); got != 0.75 {
		t.Fatalf("fraction = %v, want 0.75", got)
	}

	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatalf("doneMsg did not finish the model")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("doneMsg should quit")
	}
	view := m.View()
	if !strings.Contains(view, "done: scopes") || !strings.Contains(view, "a.toml") {
		t.Fatalf("view = %q", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a/very/long/path.toml", 10); got != "a/very/..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
