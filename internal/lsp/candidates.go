package lsp

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate describes one way to launch a language server for a file,
// per spec §4.4.1.
type Candidate struct {
	Name        string
	Language    string
	Command     string
	Args        []string
	RootMarkers []string
	Priority    int
}

// builtinPresets are the built-in candidates named in spec §4.4.1.
var builtinPresets = []Candidate{
	{
		Name: "typescript-tsgo", Language: "typescript",
		Command: "tsgo", Args: []string{"--lsp", "-stdio"},
		RootMarkers: []string{"tsconfig.json", "package.json"}, Priority: 20,
	},
	{
		Name: "typescript-tsls", Language: "typescript",
		Command: "typescript-language-server", Args: []string{"--stdio"},
		RootMarkers: []string{"tsconfig.json", "package.json"}, Priority: 10,
	},
	{
		Name: "zig-zls", Language: "zig",
		Command: "zls", Args: nil,
		RootMarkers: []string{"build.zig"}, Priority: 10,
	},
	{
		Name: "bash-language-server", Language: "bash",
		Command: "bash-language-server", Args: []string{"start"},
		RootMarkers: []string{".git"}, Priority: 10,
	},
	{
		Name: "go-gopls", Language: "go",
		Command: "gopls", Args: []string{"serve"},
		RootMarkers: []string{"go.mod", ".git"}, Priority: 10,
	},
	{
		Name: "python-pylsp", Language: "python",
		Command: "pylsp", Args: nil,
		RootMarkers: []string{"pyproject.toml", "setup.py", ".git"}, Priority: 10,
	},
	{
		Name: "rust-analyzer", Language: "rust",
		Command: "rust-analyzer", Args: nil,
		RootMarkers: []string{"Cargo.toml"}, Priority: 10,
	},
}

// tsgoViaNodeRelPath is the node_modules-relative script spec §4.4.1
// describes for the optional tsgo-via-node candidate.
const tsgoViaNodeRelPath = "node_modules/@typescript/native-preview/bin/tsgo.js"

// AdapterOverride is the config-provided shape of `lsp.adapters[]`
// (spec §6).
type AdapterOverride struct {
	Name           string
	Language       string
	Enabled        bool
	Priority       int
	Command        string
	Args           []string
	FileExtensions []string
	RootMarkers    []string
}

// DetectLanguage maps a file extension to a language tag (spec §3
// "language tag (detected from file extension)"), exported for callers
// outside this package (e.g. the editor state's Language field).
func DetectLanguage(path string) string {
	return detectLanguage(path)
}

func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".zig":
		return "zig"
	case ".sh", ".bash":
		return "bash"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	default:
		return ""
	}
}

// candidatesForFile builds the ordered candidate list (spec §4.4.1 step
// 2): built-ins whose Language matches, plus an optional tsgo-via-node
// entry when the script is present, plus config adapter overrides,
// sorted by Priority descending then Name ascending.
func candidatesForFile(path string, adapters []AdapterOverride) []Candidate {
	lang := detectLanguage(path)
	var out []Candidate

	for _, c := range builtinPresets {
		if c.Language == lang {
			out = append(out, c)
		}
	}

	if lang == "typescript" {
		if root := findRoot(filepath.Dir(path), []string{"package.json"}); root != "" {
			script := filepath.Join(root, tsgoViaNodeRelPath)
			if _, err := os.Stat(script); err == nil {
				out = append(out, Candidate{
					Name: "typescript-tsgo-via-node", Language: "typescript",
					Command:     "node",
					Args:        []string{"./node_modules/@typescript/native-preview/bin/tsgo.js", "--lsp", "-stdio"},
					RootMarkers: []string{"package.json"}, Priority: 30,
				})
			}
		}
	}

	for _, a := range adapters {
		if !a.Enabled || a.Language != lang {
			continue
		}
		out = append(out, Candidate{
			Name: a.Name, Language: a.Language, Command: a.Command,
			Args: a.Args, RootMarkers: a.RootMarkers, Priority: a.Priority,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// findRoot walks upward from dir looking for any of markers, defaulting
// to dir itself if none is found (spec §4.4.1 step 3).
func findRoot(dir string, markers []string) string {
	cur := dir
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(cur, m)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return dir
}

// resolveBinary implements spec §4.4.1 step 4: a path-separator-bearing
// command is used as-is; otherwise try root/node_modules/.bin/<name>,
// then the bare name for PATH resolution by the OS.
func resolveBinary(root, name string) string {
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	local := filepath.Join(root, "node_modules", ".bin", name)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return name
}
