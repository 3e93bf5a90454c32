package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/source"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// pickFiles lists the matching files in dir and lets the user choose a
// subset interactively. It returns nil (and no error) when the selection
// was aborted.
func (c *CLI) pickFiles(dir, filter string) ([]string, error) {
	loader := source.NewLoader(source.Options{Dir: dir, Filter: filter})
	paths, err := loader.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput,
			"no images matched in %s (filter: %q)", dir, filter)
	}

	final, err := tea.NewProgram(NewFileListModel(paths)).Run()
	if err != nil {
		return nil, fmt.Errorf("interactive selection: %w", err)
	}

	m, ok := final.(FileListModel)
	if !ok || m.Aborted {
		return nil, nil
	}
	return m.Chosen(), nil
}

// =============================================================================
// FileListModel - Interactive image selection
// =============================================================================

// FileListModel is the bubbletea model for the image selection checklist.
// All files start selected; space toggles one, "a" toggles all.
type FileListModel struct {
	Paths   []string
	Checked []bool
	Cursor  int
	Aborted bool
	Height  int
	Offset  int
}

// NewFileListModel creates a file list model with every file selected.
func NewFileListModel(paths []string) FileListModel {
	checked := make([]bool, len(paths))
	for i := range checked {
		checked[i] = true
	}
	return FileListModel{
		Paths:   paths,
		Checked: checked,
		Height:  15,
	}
}

func (m FileListModel) Init() tea.Cmd {
	return nil
}

func (m FileListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Paths)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			m.Checked[m.Cursor] = !m.Checked[m.Cursor]
		case "a":
			all := m.allChecked()
			for i := range m.Checked {
				m.Checked[i] = !all
			}
		case "enter":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FileListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Images"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ build  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Paths) {
		end = len(m.Paths)
	}

	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		check := "[ ]"
		if m.Checked[i] {
			check = "[" + StyleSuccess.Render("x") + "]"
		}

		line := fmt.Sprintf("%s%s %s", cursor, check, filepath.Base(m.Paths[i]))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else if m.Checked[i] {
			b.WriteString(listNormalStyle.Render(line))
		} else {
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d selected", m.selectedCount(), len(m.Paths))))

	return b.String()
}

// Chosen returns the selected paths in their original order.
func (m FileListModel) Chosen() []string {
	var chosen []string
	for i, path := range m.Paths {
		if m.Checked[i] {
			chosen = append(chosen, path)
		}
	}
	return chosen
}

func (m FileListModel) allChecked() bool {
	for _, c := range m.Checked {
		if !c {
			return false
		}
	}
	return true
}

func (m FileListModel) selectedCount() int {
	n := 0
	for _, c := range m.Checked {
		if c {
			n++
		}
	}
	return n
}
