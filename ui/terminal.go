//go:build !tinygo

package ui

import (
	"context"
	"fmt"

	termui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"mpureader/acquisition"
)

// Terminal renders the menu full-screen with termui.
type Terminal struct {
	Menu

	list   *widgets.List
	footer *widgets.Paragraph
}

// NewTerminal takes over the terminal. Call Close to restore it.
func NewTerminal() (*Terminal, error) {
	if err := termui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	list := widgets.NewList()
	list.TextStyle = termui.NewStyle(termui.ColorWhite)
	list.SetRect(0, 0, 40, 9)

	footer := widgets.NewParagraph()
	footer.Border = false
	footer.TextStyle = termui.NewStyle(termui.ColorYellow)
	footer.SetRect(0, 9, 40, 11)

	return &Terminal{list: list, footer: footer}, nil
}

// Close restores the terminal.
func (t *Terminal) Close() {
	termui.Close()
}

// Render draws the current screen.
func (t *Terminal) Render(snap acquisition.Snapshot) error {
	f := Layout(&t.Menu, snap)

	rows := make([]string, len(f.Rows))
	selected := -1
	for i, r := range f.Rows {
		rows[i] = fmt.Sprintf("%-14s %s", r.Label, r.Value)
		if r.Selected {
			selected = i
		}
	}

	t.list.Title = f.Title
	t.list.Rows = rows
	if selected >= 0 {
		t.list.SelectedRow = selected
		t.list.SelectedRowStyle = termui.NewStyle(termui.ColorBlack, termui.ColorWhite)
	} else {
		t.list.SelectedRow = 0
		t.list.SelectedRowStyle = t.list.TextStyle
	}
	if !snap.Healthy && t.Screen() == ScreenMain {
		t.list.BorderStyle = termui.NewStyle(termui.ColorRed)
	} else {
		t.list.BorderStyle = termui.NewStyle(termui.ColorWhite)
	}
	t.footer.Text = f.Footer

	termui.Render(t.list, t.footer)
	return nil
}

// Events forwards termui key presses until ctx is done.
func (t *Terminal) Events(ctx context.Context) <-chan Event {
	out := make(chan Event)
	in := termui.PollEvents()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-in:
				if e.Type != termui.KeyboardEvent {
					continue
				}
				k, ok := TermuiKey(e.ID)
				if !ok {
					continue
				}
				select {
				case out <- Event{Key: k}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// TermuiKey maps a termui key ID to a Key.
func TermuiKey(id string) (Key, bool) {
	switch id {
	case "<Up>", "k", "w":
		return KeyUp, true
	case "<Down>", "j", "s":
		return KeyDown, true
	case "<Left>", "h", "a":
		return KeyLeft, true
	case "<Right>", "l", "d":
		return KeyRight, true
	case "<Enter>", "<Space>":
		return KeyOk, true
	case "<Escape>", "<Backspace>", "q":
		return KeyBack, true
	case "<C-c>":
		// Raw mode swallows SIGINT.
		return KeyQuit, true
	}
	return 0, false
}
