package framework

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
)

// ManifestKind selects one of the two project manifest formats.
type ManifestKind int

const (
	// PackageJSON is the script project manifest.
	PackageJSON ManifestKind = iota
	// CargoTOML is the compiled project manifest.
	CargoTOML
)

// FileName returns the conventional file name of the manifest.
func (k ManifestKind) FileName() string {
	if k == CargoTOML {
		return "Cargo.toml"
	}
	return "package.json"
}

// ManifestExists reports whether root holds a manifest of kind.
func ManifestExists(root string, kind ManifestKind) bool {
	info, err := os.Stat(filepath.Join(root, kind.FileName()))
	return err == nil && !info.IsDir()
}

// Manifest is a parsed, schema-less view of a manifest document. Mutations are
// applied to the in-memory tree and Save rewrites the whole file, so keys the
// engine does not understand survive every write.
type Manifest struct {
	Kind ManifestKind
	Path string
	tree map[string]any
}

// NewManifest wraps tree (possibly nil) as a document of kind under root
// without touching the filesystem.
func NewManifest(root string, kind ManifestKind, tree map[string]any) *Manifest {
	if tree == nil {
		tree = map[string]any{}
	}
	return &Manifest{Kind: kind, Path: filepath.Join(root, kind.FileName()), tree: tree}
}

// LoadManifest reads and parses the manifest of kind in root.
func LoadManifest(root string, kind ManifestKind) (*Manifest, error) {
	path := filepath.Join(root, kind.FileName())
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileOperationError{
				Operation: "read " + kind.FileName(),
				Path:      path,
				Message:   "file not found",
				Err:       ErrManifestNotFound,
			}
		}
		return nil, &FileOperationError{Operation: "read " + kind.FileName(), Path: path, Message: err.Error(), Err: err}
	}
	tree, err := decodeManifest(kind, data)
	if err != nil {
		return nil, &ManifestParseError{Path: path, Err: err}
	}
	return &Manifest{Kind: kind, Path: path, tree: tree}, nil
}

func decodeManifest(kind ManifestKind, data []byte) (map[string]any, error) {
	tree := map[string]any{}
	switch kind {
	case CargoTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, err
		}
		if tree == nil {
			return nil, errors.New("document is not an object")
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected content after the top-level object")
		}
	}
	return tree, nil
}

func encodeManifest(kind ManifestKind, tree map[string]any) ([]byte, error) {
	if kind == CargoTOML {
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(false)
		if err := enc.Encode(tree); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Get walks path through nested tables. Missing keys and non-table
// intermediates are reported as absence.
func (m *Manifest) Get(path ...string) (any, bool) {
	var current any = m.tree
	for _, part := range path {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok := table[part]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}

// String returns the string at path.
func (m *Manifest) String(path ...string) (string, bool) {
	v, ok := m.Get(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringMap returns the string valued entries of the table at path. Non-string
// values are skipped.
func (m *Manifest) StringMap(path ...string) map[string]string {
	out := map[string]string{}
	v, ok := m.Get(path...)
	if !ok {
		return out
	}
	table, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, item := range table {
		if s, ok := item.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Set stores value at path, creating intermediate tables. An intermediate
// that is not a table is replaced.
func (m *Manifest) Set(value any, path ...string) {
	if len(path) == 0 {
		return
	}
	current := m.tree
	for i, part := range path {
		if i == len(path)-1 {
			current[part] = value
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
}

// Delete removes the key at path and reports whether it existed.
func (m *Manifest) Delete(path ...string) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := m.Get(path[:len(path)-1]...)
	if !ok {
		return false
	}
	table, ok := parent.(map[string]any)
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, ok := table[last]; !ok {
		return false
	}
	delete(table, last)
	return true
}

// SetAndSave stores value at path and immediately rewrites the file.
func (m *Manifest) SetAndSave(value any, path ...string) error {
	m.Set(value, path...)
	return m.Save()
}

// Save serializes the whole tree and overwrites the file.
func (m *Manifest) Save() error {
	data, err := encodeManifest(m.Kind, m.tree)
	if err != nil {
		return &ManifestWriteError{Path: m.Path, Err: err}
	}
	if err := os.WriteFile(m.Path, data, 0o644); err != nil {
		return &ManifestWriteError{Path: m.Path, Err: err}
	}
	return nil
}

// PackageInfo is the typed subset of package.json the engine reads.
type PackageInfo struct {
	Name            string            `mapstructure:"name"`
	Version         string            `mapstructure:"version"`
	Scripts         map[string]string `mapstructure:"scripts"`
	Dependencies    map[string]string `mapstructure:"dependencies"`
	DevDependencies map[string]string `mapstructure:"devDependencies"`
	Workspaces      any               `mapstructure:"workspaces"`
}

// WorkspacePatterns returns member globs from either the array form or the
// {"packages": [...]} form of the workspaces field.
func (p PackageInfo) WorkspacePatterns() []string {
	var raw []any
	switch ws := p.Workspaces.(type) {
	case []any:
		raw = ws
	case map[string]any:
		raw, _ = ws["packages"].([]any)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CargoInfo is the typed subset of Cargo.toml the engine reads.
type CargoInfo struct {
	Package struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		Edition string `mapstructure:"edition"`
	} `mapstructure:"package"`
	Lib struct {
		CrateType []string `mapstructure:"crate-type"`
	} `mapstructure:"lib"`
	Dependencies map[string]any `mapstructure:"dependencies"`
}

// PackageInfo decodes the package.json view of the document.
func (m *Manifest) PackageInfo() (PackageInfo, error) {
	var info PackageInfo
	err := decodeView(m.tree, &info)
	return info, err
}

// CargoInfo decodes the Cargo.toml view of the document.
func (m *Manifest) CargoInfo() (CargoInfo, error) {
	var info CargoInfo
	err := decodeView(m.tree, &info)
	return info, err
}

func decodeView(tree map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(tree); err != nil {
		return fmt.Errorf("decode manifest view: %w", err)
	}
	return nil
}
