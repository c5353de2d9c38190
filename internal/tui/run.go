package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"lumen/internal/app"
	"lumen/internal/config"
)

// Run wires the application core to the terminal front-end and blocks until
// the user quits.
func Run(startPath string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Warn("could not load config, using defaults", "err", err)
		cfg = config.Default()
	}

	if startPath == "" {
		startPath, err = os.Getwd()
		if err != nil {
			startPath = "/"
		}
	}
	if info, err := os.Stat(startPath); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", startPath)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	p := tea.NewProgram(NewModel(a, startPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
