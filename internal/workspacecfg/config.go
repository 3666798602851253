// Package workspacecfg loads the optional per-project cpm.yaml file and
// provides dotted-key access for the config subcommands.
package workspacecfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the project config file looked up in the project root.
	FileName = "cpm.yaml"
	// RuntimePathEnv overrides the embeddable runtime location used when
	// bundling.
	RuntimePathEnv = "JETCRAB_PATH"
	// DefaultStagingDir is where standalone builds are assembled.
	DefaultStagingDir = ".cpm-build"
)

// Config models cpm.yaml. Every field is optional.
type Config struct {
	Runtime    RuntimeConfig     `yaml:"runtime"`
	Watch      WatchConfig       `yaml:"watch"`
	Bundle     BundleConfig      `yaml:"bundle"`
	Toolchains map[string]string `yaml:"toolchains,omitempty"`
}

// RuntimeConfig selects the script runtime preference.
type RuntimeConfig struct {
	// Preferred is "jetcrab" (default) or "node".
	Preferred string `yaml:"preferred"`
}

// WatchConfig tunes the built-in file watcher used when nodemon is missing.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Ignore   []string      `yaml:"ignore,omitempty"`
}

// BundleConfig tunes standalone bundling.
type BundleConfig struct {
	RuntimePath string `yaml:"runtime_path,omitempty"`
	StagingDir  string `yaml:"staging_dir"`
	Output      string `yaml:"output,omitempty"`
}

// DefaultConfig returns the values used when cpm.yaml is absent.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{Preferred: "jetcrab"},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Bundle: BundleConfig{
			StagingDir: DefaultStagingDir,
		},
	}
}

// Path returns the config file location for root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads cpm.yaml from root over the defaults. A missing file is not an
// error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return decode(data)
}

// decode parses data over the defaults. Unknown keys are rejected so a typo
// in cpm.yaml does not silently fall back to a default.
func decode(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot act on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Runtime.Preferred) {
	case "", "jetcrab", "node":
	default:
		return fmt.Errorf("%s: runtime.preferred must be jetcrab or node, got %q", FileName, c.Runtime.Preferred)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%s: watch.debounce must not be negative", FileName)
	}
	if c.Bundle.StagingDir == "" {
		c.Bundle.StagingDir = DefaultStagingDir
	}
	if err := CheckStagingDir(c.Bundle.StagingDir); err != nil {
		return fmt.Errorf("%s: %w", FileName, err)
	}
	return nil
}

// protectedPaths are project locations a staging directory may neither be
// nor contain. Standalone builds wipe the staging directory first.
var protectedPaths = []string{
	"package.json", "Cargo.toml", "Cargo.lock", FileName,
	"index.js", "js", "src", "pkg", "target", "node_modules", ".git",
}

// CheckStagingDir accepts dir only when it names a dedicated subdirectory of
// the project: relative, below the root, and holding none of the protected
// paths or the extra ones given.
func CheckStagingDir(dir string, extra ...string) error {
	clean := filepath.Clean(dir)
	if !filepath.IsLocal(clean) || clean == "." {
		return fmt.Errorf("bundle.staging_dir %q must name a subdirectory of the project", dir)
	}
	prefix := filepath.ToSlash(clean)
	for _, p := range append(append([]string{}, protectedPaths...), extra...) {
		p = filepath.ToSlash(filepath.Clean(p))
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return fmt.Errorf("bundle.staging_dir %q would remove %s", dir, p)
		}
	}
	return nil
}

// PreferNode reports whether node should be used even when jetcrab exists.
func (c *Config) PreferNode() bool {
	return strings.EqualFold(c.Runtime.Preferred, "node")
}

// RuntimePath resolves the embeddable runtime crate: the environment override
// wins, then cpm.yaml, then a sibling jetcrab checkout next to root.
func (c *Config) RuntimePath(root string, getenv func(string) string) string {
	if getenv != nil {
		if v := strings.TrimSpace(getenv(RuntimePathEnv)); v != "" {
			return v
		}
	}
	if c.Bundle.RuntimePath != "" {
		if filepath.IsAbs(c.Bundle.RuntimePath) {
			return c.Bundle.RuntimePath
		}
		return filepath.Join(root, c.Bundle.RuntimePath)
	}
	return filepath.Join(root, "..", "jetcrab")
}

// Document is cpm.yaml as edited by `cpm config`. It holds the raw tree so
// only keys the user set are written back, and every change is checked
// against Config before it is accepted.
type Document struct {
	path string
	tree map[string]any
}

// Open reads cpm.yaml under root. A missing file yields an empty document.
func Open(root string) (*Document, error) {
	doc := &Document{path: Path(root), tree: map[string]any{}}
	data, err := os.ReadFile(doc.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &doc.tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if doc.tree == nil {
		doc.tree = map[string]any{}
	}
	return doc, nil
}

// Get looks up a dotted key such as bundle.output.
func (d *Document) Get(key string) (any, bool) {
	parts, err := splitKey(key)
	if err != nil {
		return nil, false
	}
	var current any = d.tree
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores raw under key. raw is read as a YAML scalar or flow sequence, so
// "true", "3" and "[dist, tmp]" keep their types. The document is left
// untouched when the result would not load as a Config.
func (d *Document) Set(key, raw string) error {
	parts, err := splitKey(key)
	if err != nil {
		return err
	}
	next := cloneTree(d.tree)
	current := next
	for _, part := range parts[:len(parts)-1] {
		child, ok := current[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			current[part] = child
		}
		current = child
	}
	current[parts[len(parts)-1]] = parseValue(raw)

	data, err := yaml.Marshal(next)
	if err != nil {
		return err
	}
	if _, err := decode(data); err != nil {
		return err
	}
	d.tree = next
	return nil
}

// Save writes the document back to cpm.yaml.
func (d *Document) Save() error {
	data, err := yaml.Marshal(d.tree)
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, data, 0o644)
}

func splitKey(key string) ([]string, error) {
	parts := strings.Split(key, ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("invalid key %q", key)
		}
	}
	return parts, nil
}

func cloneTree(tree map[string]any) map[string]any {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		if m, ok := v.(map[string]any); ok {
			v = cloneTree(m)
		}
		out[k] = v
	}
	return out
}

func parseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	if _, ok := v.(map[string]any); ok {
		return raw
	}
	return v
}

// Format renders a value on one line for `cpm config get`.
func Format(v any) string {
	switch value := v.(type) {
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, Format(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		b, _ := yaml.Marshal(value)
		return strings.TrimSpace(string(b))
	default:
		return fmt.Sprint(value)
	}
}
