package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m FileListModel, keys ...string) FileListModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(FileListModel)
		if !ok {
			t.Fatalf("Update returned %T, want FileListModel", next)
		}
	}
	return m
}

func TestFileListStartsAllSelected(t *testing.T) {
	m := NewFileListModel([]string{"a.png", "b.png", "c.png"})
	if got := m.Chosen(); len(got) != 3 {
		t.Errorf("Chosen = %v, want all three", got)
	}
}

func TestFileListToggle(t *testing.T) {
	m := NewFileListModel([]string{"a.png", "b.png", "c.png"})

	// Deselect the second entry.
	m = update(t, m, "down", " ")
	chosen := m.Chosen()
	if len(chosen) != 2 || chosen[0] != "a.png" || chosen[1] != "c.png" {
		t.Errorf("Chosen = %v, want [a.png c.png]", chosen)
	}

	// Toggle it back on.
	m = update(t, m, " ")
	if len(m.Chosen()) != 3 {
		t.Errorf("Chosen = %v, want all three again", m.Chosen())
	}
}

func TestFileListToggleAll(t *testing.T) {
	m := NewFileListModel([]string{"a.png", "b.png"})

	m = update(t, m, "a")
	if len(m.Chosen()) != 0 {
		t.Errorf("Chosen = %v, want none after toggle-all", m.Chosen())
	}

	m = update(t, m, "a")
	if len(m.Chosen()) != 2 {
		t.Errorf("Chosen = %v, want all after second toggle-all", m.Chosen())
	}
}

func TestFileListCursorBounds(t *testing.T) {
	m := NewFileListModel([]string{"a.png", "b.png"})

	m = update(t, m, "up")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0 at top", m.Cursor)
	}

	m = update(t, m, "down", "down", "down")
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 at bottom", m.Cursor)
	}
}

func TestFileListAbort(t *testing.T) {
	m := NewFileListModel([]string{"a.png"})
	m = update(t, m, "esc")
	if !m.Aborted {
		t.Error("escape should abort the selection")
	}
}

func TestFileListConfirmKeepsSelection(t *testing.T) {
	m := NewFileListModel([]string{"a.png", "b.png"})
	m = update(t, m, " ", "enter")
	if m.Aborted {
		t.Error("enter should not abort")
	}
	chosen := m.Chosen()
	if len(chosen) != 1 || chosen[0] != "b.png" {
		t.Errorf("Chosen = %v, want [b.png]", chosen)
	}
}

func TestFileListViewRenders(t *testing.T) {
	m := NewFileListModel([]string{"/in/a.png", "/in/b.png"})
	view := m.View()
	if view == "" {
		t.Fatal("empty view")
	}
	// Entries are shown by base name only.
	for _, want := range []string{"a.png", "b.png", "2/2 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
