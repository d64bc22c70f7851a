package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palettelabs/cmdpal/palette"
	"github.com/palettelabs/cmdpal/tui/styles"
)

// App runs a palette model inside a bubbletea program and bridges
// controller change notifications into the update loop.
type App struct {
	program *tea.Program
}

// NewApp creates the program around a controller. The controller's
// OnChange is claimed by the app; hosts needing their own change hook
// should wrap the controller callbacks before calling this.
func NewApp(controller *palette.Controller, themeName string) *App {
	model := New(controller, styles.GetTheme(themeName))
	program := tea.NewProgram(model, tea.WithAltScreen())

	controller.OnChange(func() {
		program.Send(stateChangedMsg{})
	})

	return &App{program: program}
}

// Run blocks until the program exits
func (a *App) Run() error {
	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("failed to run palette: %w", err)
	}
	return nil
}

// Quit stops the program. Safe to call from any goroutine, including
// the controller's OnOpenChange callback.
func (a *App) Quit() {
	a.program.Quit()
}
