// Package ui is the system tray surface: status at a glance plus pause and
// quit controls.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/megastudio/studio-agent/internal/assemble"
	"github.com/megastudio/studio-agent/internal/capture"
	"github.com/megastudio/studio-agent/internal/studio"
)

type Tray struct {
	studioSvc studio.StudioService
	runner    *assemble.Runner
	capture   *capture.Controller
	logger    *slog.Logger

	statusItem   *systray.MenuItem
	projectsItem *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	StudioService studio.StudioService
	Runner        *assemble.Runner
	Capture       *capture.Controller
	Logger        *slog.Logger
	OnQuit        func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		studioSvc: cfg.StudioService,
		runner:    cfg.Runner,
		capture:   cfg.Capture,
		logger:    cfg.Logger,
		onQuit:    cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle("Studio")
	systray.SetTooltip("Studio Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.projectsItem = systray.AddMenuItem("Projects: 0", "Assembled projects")
	t.projectsItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause assembly jobs")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Studio Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.refreshProjectsCount()
	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	if t.capture != nil && t.capture.Active() {
		status = "Recording"
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) refreshProjectsCount() {
	projects, err := t.studioSvc.ListProjects(context.Background(), 1000)
	if err != nil {
		return
	}
	t.UpdateProjectsCount(len(projects))
}

func (t *Tray) UpdateProjectsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectsItem.SetTitle(fmt.Sprintf("Projects: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
