// Command zicro is a terminal-based source code editor: a piece-table
// buffer, a cooperative single-threaded event loop, and an optional LSP
// client for completion, hover, definitions, references, and diagnostics.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"zicro/internal/app"
	"zicro/internal/buffer"
	"zicro/internal/config"
	"zicro/internal/logging"
	"zicro/internal/lsp"
	"zicro/internal/term"
	"zicro/internal/ui"
)

// version is stamped by the release process; left as a placeholder for
// local builds.
var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "zicro [file]",
		Short: "zicro is a terminal-based source code editor with LSP support",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("zicro " + version)
				return nil
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return run(path)
		},
	}
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the version and exit")
	return cmd
}

// maxOpenFileBytes is the open cap named in spec §4.6 ("open cap 512
// MiB").
const maxOpenFileBytes = 512 * 1024 * 1024

func run(path string) error {
	logger, closeLog := logging.Open()
	defer closeLog()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	cfg, err := config.Load(cwd, path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	initial, err := loadInitialContents(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	buf := buffer.New(initial)
	a := app.New(buf, path, cfg, logger)
	a.LSP.SetTrace(func(direction string, payload []byte) {
		logger.Printf("%s%s", direction, payload)
	})

	if term.IsTerminal(int(os.Stdin.Fd())) {
		driver, err := term.Open()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		a.Term = driver
	}
	defer a.Shutdown()

	if cfg.Lsp.Enabled && path != "" {
		if err := a.LSP.StartForFile(path, adaptersFromConfig(cfg)); err != nil {
			logger.Printf("lsp start failed: %v", err)
		}
	}

	if watcher, err := startExternalModificationWatch(a, path); err != nil {
		logger.Printf("watch failed: %v", err)
	} else if watcher != nil {
		defer watcher.Close()
	}

	mainLoop(a)
	return nil
}

// loadInitialContents reads path's bytes, bounded by the open cap (spec
// §4.6); a missing path starts an empty buffer (new-file editing).
func loadInitialContents(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.Size() > maxOpenFileBytes {
		return nil, fmt.Errorf("file exceeds 512MiB open cap")
	}
	return os.ReadFile(path)
}

// adaptersFromConfig converts the config-file adapter overrides (spec §6
// lsp.adapters[]) into the shape lsp.StartForFile expects.
func adaptersFromConfig(cfg *config.Config) []lsp.AdapterOverride {
	if len(cfg.Lsp.Adapters) == 0 {
		return nil
	}
	out := make([]lsp.AdapterOverride, len(cfg.Lsp.Adapters))
	for i, ad := range cfg.Lsp.Adapters {
		out[i] = lsp.AdapterOverride{
			Name:           ad.Name,
			Language:       ad.Language,
			Enabled:        ad.Enabled,
			Priority:       ad.Priority,
			Command:        ad.Command,
			Args:           ad.Args,
			FileExtensions: ad.FileExtensions,
			RootMarkers:    ad.RootMarkers,
		}
	}
	return out
}

// startExternalModificationWatch implements the supplemented fsnotify
// feature (spec §3's "Lifecycle" doesn't rule it out, and the original
// source watches the open file for external edits): notifications are
// delivered through a.ExternalChanges so they're only ever consumed on
// the single event-loop thread.
func startExternalModificationWatch(a *app.App, path string) (*fsnotify.Watcher, error) {
	if path == "" {
		return nil, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					select {
					case a.ExternalChanges <- ev.Name:
					default:
					}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return w, nil
}

// mainLoop drives the event loop described in spec §4.6: decode terminal
// input, tick the App, render when needed, and sleep a fixed 1 ms before
// the next pass.
func mainLoop(a *app.App) {
	var pending []term.KeyEvent
	for a.Running {
		now := time.Now()
		if a.Term != nil {
			events, err := a.Term.ReadEvents(pending[:0])
			if err == nil {
				pending = events
			}
		}
		a.Tick(pending, now)
		if a.NeedsRender {
			width, height := 80, 24
			if a.Term != nil {
				width, height = a.Term.Size()
			}
			frame := ui.Render(a, width, height)
			os.Stdout.Write(frame)
			a.NeedsRender = false
		}
		time.Sleep(time.Millisecond)
	}
}
