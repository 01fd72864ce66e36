// Package ui is the on-device interface: a four-screen menu driven by six
// keys, rendered either as plain text frames or through termui.
package ui

import (
	"mpureader/acquisition"
)

// Key is an input key. Only short presses are delivered.
type Key uint8

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyOk
	KeyBack

	// KeyQuit leaves the application from any screen.
	KeyQuit
)

// Event is one key press.
type Event struct {
	Key Key
}

// Screen is the menu page being shown.
type Screen uint8

const (
	ScreenMain Screen = iota
	ScreenSettings
	ScreenAbout
	ScreenMaxG
)

// SettingsItem is a row on the settings screen.
type SettingsItem uint8

const (
	SettingsAddress SettingsItem = iota
	SettingsAccelFS
	SettingsGyroFS
	settingsCount
)

// Presentation renders published state and turns input into change requests.
type Presentation interface {
	Render(snap acquisition.Snapshot) error
	HandleInput(ev Event) (acquisition.Change, bool)
	Quit() bool
}

// Menu is the screen/cursor state machine shared by all renderers.
type Menu struct {
	screen Screen
	cursor SettingsItem
	quit   bool
}

// Screen returns the current screen.
func (m *Menu) Screen() Screen { return m.screen }

// Cursor returns the selected settings row.
func (m *Menu) Cursor() SettingsItem { return m.cursor }

// Quit reports whether Back was pressed on the main screen or Quit on any.
func (m *Menu) Quit() bool { return m.quit }

// HandleInput advances the menu and returns a change request when the key
// edits a setting or resets the peaks.
func (m *Menu) HandleInput(ev Event) (acquisition.Change, bool) {
	if ev.Key == KeyQuit {
		m.quit = true
		return 0, false
	}

	switch m.screen {
	case ScreenMain:
		switch ev.Key {
		case KeyOk:
			m.screen = ScreenMaxG
		case KeyBack:
			m.quit = true
		case KeyRight:
			m.screen = ScreenAbout
		case KeyLeft:
			m.screen = ScreenSettings
		}

	case ScreenSettings:
		switch ev.Key {
		case KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case KeyDown:
			if m.cursor < settingsCount-1 {
				m.cursor++
			}
		case KeyLeft, KeyRight:
			return m.settingsChange(ev.Key == KeyRight), true
		case KeyOk, KeyBack:
			m.screen = ScreenMain
		}

	case ScreenAbout:
		if ev.Key == KeyOk || ev.Key == KeyBack {
			m.screen = ScreenMain
		}

	case ScreenMaxG:
		switch ev.Key {
		case KeyOk:
			return acquisition.ResetPeaks, true
		case KeyBack:
			m.screen = ScreenMain
		}
	}
	return 0, false
}

func (m *Menu) settingsChange(forward bool) acquisition.Change {
	switch m.cursor {
	case SettingsAccelFS:
		if forward {
			return acquisition.AccelRangeNext
		}
		return acquisition.AccelRangePrev
	case SettingsGyroFS:
		if forward {
			return acquisition.GyroRangeNext
		}
		return acquisition.GyroRangePrev
	default:
		return acquisition.ToggleAddress
	}
}
