// Package desktop opens the running server in a local browser window.
package desktop

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/browser"
	"go.uber.org/zap"
)

var defaultCandidates = []string{
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
	`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
	"/snap/bin/chromium",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// Launcher starts a chromium-family browser in app mode with a throwaway
// profile. Without such a browser the system default browser is used.
type Launcher struct {
	candidates []string
	logger     *zap.Logger
	openURL    func(string) error
}

// NewLauncher builds a launcher. A non-empty browserPath is tried before the
// well-known install locations.
func NewLauncher(browserPath string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	candidates := make([]string, 0, len(defaultCandidates)+1)
	if browserPath != "" {
		candidates = append(candidates, browserPath)
	}
	candidates = append(candidates, defaultCandidates...)
	return &Launcher{candidates: candidates, logger: logger, openURL: browser.OpenURL}
}

// Run opens url and blocks until the app window is closed or ctx is done.
// With the default-browser fallback there is no window to watch, so Run
// waits for ctx.
func (l *Launcher) Run(ctx context.Context, url string) error {
	path := l.findBrowser()
	if path == "" {
		l.logger.Info("no app-mode browser found, opening default browser", zap.String("url", url))
		if err := l.openURL(url); err != nil {
			return fmt.Errorf("open default browser: %w", err)
		}
		<-ctx.Done()
		return nil
	}

	profile, err := os.MkdirTemp("", "webgui")
	if err != nil {
		return fmt.Errorf("create browser profile: %w", err)
	}
	defer os.RemoveAll(profile)

	cmd := exec.CommandContext(ctx, path, Args(url, profile)...)
	l.logger.Info("starting browser", zap.String("browser", path), zap.String("url", url))
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run browser %s: %w", path, err)
	}
	l.logger.Info("browser closed")
	return nil
}

// Args returns the command line for an app-mode window on url.
func Args(url, profileDir string) []string {
	return []string{
		"--app=" + url,
		"--user-data-dir=" + profileDir,
		"--disable-extensions",
		"--new-window",
		"--no-default-browser-check",
		"--no-first-run",
		"--window-size=1280,960",
	}
}

func (l *Launcher) findBrowser() string {
	for _, p := range l.candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
