// Package config loads .zicro.json (spec §6) into a fixed struct,
// mirroring the teacher's config.LoadConfig layering (defaults → global
// → local, last field wins) but using dario.cat/mergo to perform the
// merge instead of a hand-written field-by-field copy.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"dario.cat/mergo"
)

// CompletionConfig is lsp.completion.* (spec §6).
type CompletionConfig struct {
	Auto             bool `json:"auto"`
	DebounceMs       int  `json:"debounce_ms"`
	MinPrefixLen     int  `json:"min_prefix_len"`
	TriggerOnDot     bool `json:"trigger_on_dot"`
	TriggerOnLetters bool `json:"trigger_on_letters"`
}

// HoverShowMode is lsp.hover.show_mode.
type HoverShowMode string

const (
	HoverShowStatus  HoverShowMode = "status"
	HoverShowTooltip HoverShowMode = "tooltip"
)

// HoverConfig is lsp.hover.* (spec §6).
type HoverConfig struct {
	Auto       bool          `json:"auto"`
	DebounceMs int           `json:"debounce_ms"`
	ShowMode   HoverShowMode `json:"show_mode"`
	HideOnType bool          `json:"hide_on_type"`
}

// LspUIConfig is lsp.ui.* (spec §6).
type LspUIConfig struct {
	TooltipMaxWidth int `json:"tooltip_max_width"`
	TooltipMaxRows  int `json:"tooltip_max_rows"`
}

// ServerMode is lsp.typescript.mode.
type ServerMode string

const (
	ServerModeAuto ServerMode = "auto"
	ServerModeTsls ServerMode = "tsls"
	ServerModeTsgo ServerMode = "tsgo"
)

// TypeScriptConfig is lsp.typescript.* (spec §6).
type TypeScriptConfig struct {
	Mode        ServerMode `json:"mode"`
	Command     string     `json:"command"`
	Args        []string   `json:"args"`
	RootMarkers []string   `json:"root_markers"`
}

// ZigConfig is lsp.zig.* (spec §6).
type ZigConfig struct {
	Enabled     bool     `json:"enabled"`
	Command     string   `json:"command"`
	Args        []string `json:"args"`
	RootMarkers []string `json:"root_markers"`
}

// Adapter is one entry of lsp.adapters[] (spec §6).
type Adapter struct {
	Name           string   `json:"name"`
	Language       string   `json:"language"`
	Enabled        bool     `json:"enabled"`
	Priority       int      `json:"priority"`
	Command        string   `json:"command"`
	Args           []string `json:"args"`
	FileExtensions []string `json:"file_extensions"`
	RootMarkers    []string `json:"root_markers"`
}

// ServerOverrides is lsp.servers.{typescript,zig} (spec §6): applied
// after the top-level lsp.typescript/lsp.zig sections.
type ServerOverrides struct {
	TypeScript *TypeScriptConfig `json:"typescript,omitempty"`
	Zig        *ZigConfig        `json:"zig,omitempty"`
}

// LspConfig is the lsp.* section (spec §6).
type LspConfig struct {
	Enabled           bool             `json:"enabled"`
	ChangeDebounceMs  int              `json:"change_debounce_ms"`
	DidSaveDebounceMs int              `json:"did_save_debounce_ms"`
	Completion        CompletionConfig `json:"completion"`
	Hover             HoverConfig      `json:"hover"`
	UI                LspUIConfig      `json:"ui"`
	TypeScript        TypeScriptConfig `json:"typescript"`
	Zig               ZigConfig        `json:"zig"`
	Adapters          []Adapter        `json:"adapters"`
	Servers           ServerOverrides  `json:"servers"`
}

// UIConfig is the ui.* section (spec §6).
type UIConfig struct {
	PerfOverlay bool `json:"perf_overlay"`
}

// Config is the fixed struct .zicro.json is parsed into (spec §6).
type Config struct {
	TabWidth int       `json:"tab_width"`
	Autosave bool      `json:"autosave"`
	UI       UIConfig  `json:"ui"`
	Lsp      LspConfig `json:"lsp"`
}

// Default returns the configuration defaults named in spec §6.
func Default() *Config {
	return &Config{
		TabWidth: 4,
		Autosave: false,
		UI:       UIConfig{PerfOverlay: false},
		Lsp: LspConfig{
			Enabled:           true,
			ChangeDebounceMs:  32,
			DidSaveDebounceMs: 64,
			Completion: CompletionConfig{
				Auto: true, DebounceMs: 120, MinPrefixLen: 2,
				TriggerOnDot: true, TriggerOnLetters: true,
			},
			Hover: HoverConfig{
				Auto: true, DebounceMs: 400, ShowMode: HoverShowStatus, HideOnType: true,
			},
			UI: LspUIConfig{TooltipMaxWidth: 80, TooltipMaxRows: 12},
			TypeScript: TypeScriptConfig{
				Mode: ServerModeAuto, RootMarkers: []string{"tsconfig.json", "package.json"},
			},
			Zig: ZigConfig{Enabled: true, Command: "zls", RootMarkers: []string{"build.zig"}},
		},
	}
}

// Load implements spec §6's search/merge order: defaults, then CWD's
// .zicro.json, then each .zicro.json in filePath's ancestor directories,
// from the root down to filePath's own directory, options merged
// last-wins (so the nearest ancestor wins). Any parse error for a
// given layer is silently ignored (spec §7): defaults and any
// previously-applied layer prevail.
func Load(cwd, filePath string) (*Config, error) {
	cfg := Default()

	if layer, ok := loadLayer(filepath.Join(cwd, ".zicro.json")); ok {
		if err := mergeInto(cfg, layer); err != nil {
			return nil, err
		}
	}

	// ancestorsOf returns nearest-first; merge furthest-first so the
	// nearest ancestor's layer is applied last and wins.
	ancestors := ancestorsOf(filepath.Dir(filePath))
	for i := len(ancestors) - 1; i >= 0; i-- {
		if layer, ok := loadLayer(filepath.Join(ancestors[i], ".zicro.json")); ok {
			if err := mergeInto(cfg, layer); err != nil {
				return nil, err
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadLayer reads and parses one candidate config file, returning
// ok==false on any error (missing file or malformed JSON alike, per
// spec §7's "config parse errors are silently ignored").
func loadLayer(path string) (*Config, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var layer Config
	if err := json.Unmarshal(data, &layer); err != nil {
		return nil, false
	}
	return &layer, true
}

// mergeInto deep-merges layer onto cfg, layer's non-zero fields winning,
// via mergo rather than a hand-rolled field copy.
func mergeInto(cfg, layer *Config) error {
	return mergo.Merge(cfg, layer, mergo.WithOverride)
}

// ancestorsOf returns dir and each of its ancestors up to the filesystem
// root, nearest first, matching spec §6's "walked up from file path".
func ancestorsOf(dir string) []string {
	var out []string
	cur := dir
	for {
		out = append(out, cur)
		parent := filepath.Dir(cur)
		if parent == cur {
			return out
		}
		cur = parent
	}
}

// validate clamps out-of-range numeric fields to their nearest bound
// rather than erroring, consistent with spec §7's error philosophy that
// config problems never abort startup.
func validate(cfg *Config) error {
	clampInt(&cfg.TabWidth, 1, 16)
	clampInt(&cfg.Lsp.ChangeDebounceMs, 1, 1000)
	clampInt(&cfg.Lsp.DidSaveDebounceMs, 1, 1000)
	clampInt(&cfg.Lsp.UI.TooltipMaxWidth, 16, 240)
	clampInt(&cfg.Lsp.UI.TooltipMaxRows, 1, 40)
	for i := range cfg.Lsp.Adapters {
		clampInt(&cfg.Lsp.Adapters[i].Priority, -1000, 1000)
	}
	return nil
}

func clampInt(v *int, lo, hi int) {
	if *v < lo {
		*v = lo
	}
	if *v > hi {
		*v = hi
	}
}
