package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.TabWidth != 4 {
		t.Errorf("got TabWidth=%d, want 4", cfg.TabWidth)
	}
	if cfg.Autosave {
		t.Error("expected Autosave default false")
	}
	if cfg.Lsp.ChangeDebounceMs != 32 {
		t.Errorf("got ChangeDebounceMs=%d, want 32", cfg.Lsp.ChangeDebounceMs)
	}
	if cfg.Lsp.DidSaveDebounceMs != 64 {
		t.Errorf("got DidSaveDebounceMs=%d, want 64", cfg.Lsp.DidSaveDebounceMs)
	}
	if !cfg.Lsp.Completion.TriggerOnDot {
		t.Error("expected TriggerOnDot default true")
	}
}

func TestLoadMergesCwdThenAncestors(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "proj", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	mustWrite(t, filepath.Join(root, ".zicro.json"), `{"tab_width": 2}`)
	mustWrite(t, filepath.Join(root, "proj", ".zicro.json"), `{"autosave": true}`)

	cfg, err := Load(root, filepath.Join(sub, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TabWidth != 2 {
		t.Errorf("got TabWidth=%d, want 2 (from cwd layer)", cfg.TabWidth)
	}
	if !cfg.Autosave {
		t.Error("expected Autosave=true from ancestor layer")
	}
	// Untouched fields keep their defaults.
	if cfg.Lsp.ChangeDebounceMs != 32 {
		t.Errorf("got ChangeDebounceMs=%d, want default 32", cfg.Lsp.ChangeDebounceMs)
	}
}

func TestLoadAncestorOverridesCwd(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "proj")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(root, ".zicro.json"), `{"tab_width": 2}`)
	mustWrite(t, filepath.Join(sub, ".zicro.json"), `{"tab_width": 8}`)

	cfg, err := Load(root, filepath.Join(sub, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TabWidth != 8 {
		t.Errorf("got TabWidth=%d, want 8 (nearest-ancestor wins)", cfg.TabWidth)
	}
}

func TestLoadIgnoresMalformedLayer(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".zicro.json"), `{not valid json`)

	cfg, err := Load(root, filepath.Join(root, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TabWidth != 4 {
		t.Errorf("got TabWidth=%d, want default 4 when layer is malformed", cfg.TabWidth)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".zicro.json"), `{"tab_width": 99, "lsp": {"change_debounce_ms": -5}}`)

	cfg, err := Load(root, filepath.Join(root, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TabWidth != 16 {
		t.Errorf("got TabWidth=%d, want clamped to 16", cfg.TabWidth)
	}
	if cfg.Lsp.ChangeDebounceMs != 1 {
		t.Errorf("got ChangeDebounceMs=%d, want clamped to 1", cfg.Lsp.ChangeDebounceMs)
	}
}

func TestAdaptersAndServerOverridesSurvive(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".zicro.json"), `{
		"lsp": {
			"adapters": [{"name": "custom", "language": "zig", "command": "my-zls", "priority": 50}],
			"servers": {"zig": {"enabled": false}}
		}
	}`)

	cfg, err := Load(root, filepath.Join(root, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Lsp.Adapters) != 1 || cfg.Lsp.Adapters[0].Command != "my-zls" {
		t.Fatalf("got adapters=%+v", cfg.Lsp.Adapters)
	}
	if cfg.Lsp.Servers.Zig == nil || cfg.Lsp.Servers.Zig.Enabled {
		t.Fatalf("got servers.zig=%+v", cfg.Lsp.Servers.Zig)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
