// Package tui provides the application shell for interactive terminal
// workflows.
package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App wraps tview.Application with the worksafe theme.
type App struct {
	*tview.Application
}

// NewApp creates a themed TUI application.
func NewApp() *App {
	app := &App{
		Application: tview.NewApplication(),
	}

	app.EnableMouse(true)

	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack
	tview.Styles.MoreContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.BorderColor = AccentColor
	tview.Styles.TitleColor = AccentColor
	tview.Styles.GraphicsColor = AccentColor
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorLightGray
	tview.Styles.TertiaryTextColor = tcell.ColorGray
	tview.Styles.InverseTextColor = tcell.ColorBlack
	tview.Styles.ContrastSecondaryTextColor = tcell.ColorWhite

	return app
}
