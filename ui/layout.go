package ui

import (
	"fmt"
	"strings"

	"mpureader/acquisition"
	"mpureader/mpu6050"
)

// Version is shown on the about screen.
const Version = "0.1.0"

// Row is one labelled line of a frame.
type Row struct {
	Label    string
	Value    string
	Selected bool
}

// Frame is a renderer-independent description of one screen.
type Frame struct {
	Title  string
	Rows   []Row
	Footer string
}

// Layout builds the frame for the menu's current screen.
func Layout(m *Menu, snap acquisition.Snapshot) Frame {
	switch m.Screen() {
	case ScreenSettings:
		cfg := snap.Config
		return Frame{
			Title: "Settings",
			Rows: []Row{
				{Label: "I2C Address:", Value: cfg.Address.String(), Selected: m.Cursor() == SettingsAddress},
				{Label: "Accel FSR:", Value: mpu6050.AccelRangeLabel(cfg.AccelRange), Selected: m.Cursor() == SettingsAccelFS},
				{Label: "Gyro FSR:", Value: mpu6050.GyroRangeLabel(cfg.GyroRange), Selected: m.Cursor() == SettingsGyroFS},
			},
			Footer: "[Ok/Back] Back",
		}

	case ScreenAbout:
		return Frame{
			Title: "About",
			Rows: []Row{
				{Label: "MPU-6050 Reader Application"},
				{Label: "Version " + Version},
			},
			Footer: "[Ok/Back] Back",
		}

	case ScreenMaxG:
		p := snap.Peaks
		return Frame{
			Title: "Max G Values",
			Rows: []Row{
				{Label: "Max X:", Value: formatG(p.X)},
				{Label: "Max Y:", Value: formatG(p.Y)},
				{Label: "Max Z:", Value: formatG(p.Z)},
			},
			Footer: "[Ok] Reset [Back] Back",
		}
	}

	f := Frame{
		Title:  "MPU-6050",
		Footer: "Settings [<] About [>] [Ok] Max",
	}
	if !snap.Healthy {
		// Last-known values are stale once health drops.
		f.Rows = []Row{{Label: "Connect sensor"}}
		return f
	}
	f.Rows = []Row{
		{Label: "Acc X:", Value: formatG(snap.Accel.X)},
		{Label: "Acc Y:", Value: formatG(snap.Accel.Y)},
		{Label: "Acc Z:", Value: formatG(snap.Accel.Z)},
		{Label: "Gyro:", Value: fmt.Sprintf("%.1f %.1f %.1f dps", snap.Gyro.X, snap.Gyro.Y, snap.Gyro.Z)},
		{Label: "Temp:", Value: fmt.Sprintf("%.1f C", snap.TempC)},
	}
	return f
}

func formatG(v float64) string {
	return fmt.Sprintf("%.2f g", v)
}

// Text renders f as fixed-width plain text, width columns wide.
func (f Frame) Text(width int) string {
	var b strings.Builder

	b.WriteString(center(f.Title, width))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", width))
	b.WriteByte('\n')

	for _, r := range f.Rows {
		marker := "  "
		if r.Selected {
			marker = "> "
		}
		line := marker + r.Label
		if r.Value != "" {
			pad := width - len(line) - len(r.Value)
			if pad < 1 {
				pad = 1
			}
			line += strings.Repeat(" ", pad) + r.Value
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat("-", width))
	b.WriteByte('\n')
	b.WriteString(center(f.Footer, width))
	b.WriteByte('\n')
	return b.String()
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
