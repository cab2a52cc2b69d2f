package tui

import "github.com/gdamore/tcell/v2"

// Palette used across the TUI.
var (
	AccentColor  = tcell.ColorSteelBlue
	LightColor   = tcell.ColorLightSkyBlue
	WarningColor = tcell.ColorYellow
)
