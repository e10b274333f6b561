// Package ui offers "did you mean" choices to a terminal user.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

// PickOption lets the user choose one of choices with the first backend
// that works. used is false when no interactive backend could run, in
// which case the caller should fall back to PickPlain.
func PickOption(backend string, title string, choices []string) (string, bool, error) {
	choices = uniqueChoices(choices)
	if len(choices) == 0 {
		return "", false, nil
	}

	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			selected string
			used     bool
			err      error
		)
		switch candidate {
		case BackendBubbleTea:
			selected, used, err = pickWithBubbleTea(title, choices)
		case BackendHuh:
			selected, used, err = pickWithHuh(title, choices)
		case BackendTView:
			selected, used, err = pickWithTView(title, choices)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if used {
			return selected, true, nil
		}
	}
	return "", false, firstErr
}

// PickPlain prints a numbered list and reads the answer from in. An
// empty answer, zero or end of input cancels.
func PickPlain(in io.Reader, out io.Writer, title string, choices []string) (string, bool, error) {
	choices = uniqueChoices(choices)
	if len(choices) == 0 {
		return "", false, nil
	}
	if title != "" {
		fmt.Fprintln(out, title)
	}
	for i, choice := range choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, choice)
	}
	fmt.Fprint(out, "> ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	answer := strings.TrimSpace(line)
	if answer == "" || answer == "0" {
		return "", false, nil
	}
	if n, convErr := strconv.Atoi(answer); convErr == nil {
		if n < 1 || n > len(choices) {
			return "", false, fmt.Errorf("choice %d out of range", n)
		}
		return choices[n-1], true, nil
	}
	for _, choice := range choices {
		if strings.EqualFold(choice, answer) {
			return choice, true, nil
		}
	}
	return "", false, fmt.Errorf("unknown choice %q", answer)
}

func uniqueChoices(choices []string) []string {
	out := make([]string, 0, len(choices))
	seen := map[string]struct{}{}
	for _, choice := range choices {
		choice = strings.TrimSpace(choice)
		if choice == "" {
			continue
		}
		key := strings.ToLower(choice)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, choice)
	}
	return out
}

func pickWithHuh(title string, choices []string) (string, bool, error) {
	options := huh.NewOptions(choices...)
	choice := choices[0]

	prompt := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Filtering(true).
		Height(huhSelectHeight(len(options))).
		Value(&choice).
		WithTheme(huh.ThemeCharm())

	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", true, nil
		}
		return "", false, err
	}
	return choice, true, nil
}

type pickerItem string

func (i pickerItem) Title() string       { return string(i) }
func (i pickerItem) Description() string { return "" }
func (i pickerItem) FilterValue() string { return string(i) }

type pickerModel struct {
	list      list.Model
	selection string
	cancelled bool
	options   int
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.WindowSizeMsg:
		width, height := bubblePickerSize(k.Width, k.Height, m.options)
		m.list.SetSize(width, height)
		return m, nil
	case tea.KeyMsg:
		switch k.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(pickerItem); ok {
				m.selection = string(item)
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View()
}

func pickWithBubbleTea(title string, choices []string) (string, bool, error) {
	items := make([]list.Item, 0, len(choices))
	for _, choice := range choices {
		items = append(items, pickerItem(choice))
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	width, height := bubblePickerSize(80, 24, len(items))
	picker := list.New(items, delegate, width, height)
	picker.Title = title
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(true)

	final, err := tea.NewProgram(pickerModel{list: picker, options: len(items)}, tea.WithAltScreen()).Run()
	if err != nil {
		return "", false, err
	}
	out, ok := final.(pickerModel)
	if !ok || out.cancelled {
		return "", true, nil
	}
	return out.selection, true, nil
}

func pickWithTView(title string, choices []string) (string, bool, error) {
	app := tview.NewApplication()
	listView := tview.NewList()
	listView.SetBorder(true)
	listView.SetTitle(title)
	listView.ShowSecondaryText(false)

	selected := ""
	for _, choice := range choices {
		current := choice
		listView.AddItem(current, "", 0, func() {
			selected = current
			app.Stop()
		})
	}
	listView.SetDoneFunc(func() {
		app.Stop()
	})

	if err := app.SetRoot(listView, true).SetFocus(listView).Run(); err != nil {
		return "", false, err
	}
	return selected, true, nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func bubblePickerSize(termWidth, termHeight, optionCount int) (int, int) {
	if termWidth <= 0 {
		termWidth = 80
	}
	if termHeight <= 0 {
		termHeight = 24
	}
	if optionCount < 1 {
		optionCount = 1
	}

	minWidth := min(32, termWidth)
	width := clampInt(termWidth-4, minWidth, termWidth)

	desiredHeight := clampInt(optionCount, 3, 12) + 6
	maxHeight := termHeight - 2
	if maxHeight <= 0 {
		maxHeight = max(termHeight, 1)
	}
	minHeight := min(8, maxHeight)
	return width, clampInt(desiredHeight, minHeight, maxHeight)
}

func huhSelectHeight(optionCount int) int {
	return clampInt(max(optionCount, 1)+1, 4, 10)
}
