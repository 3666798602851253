// Package project classifies the working directory and locates the files
// cpm commands operate on.
package project

import (
	"os"
	"path/filepath"

	"github.com/jetcrabcollab/cpm/framework"
)

// Kind classifies a directory by the manifests it holds.
type Kind int

const (
	Uninitialized Kind = iota
	ScriptOnly
	CompiledOnly
	Hybrid
)

func (k Kind) String() string {
	switch k {
	case ScriptOnly:
		return "javascript"
	case CompiledOnly:
		return "rust"
	case Hybrid:
		return "hybrid"
	default:
		return "uninitialized"
	}
}

// HasScript reports whether a package.json is present.
func (k Kind) HasScript() bool { return k == ScriptOnly || k == Hybrid }

// HasCompiled reports whether a Cargo.toml is present.
func (k Kind) HasCompiled() bool { return k == CompiledOnly || k == Hybrid }

// Classify inspects only the existence of manifests in root. It never fails.
func Classify(root string) Kind {
	script := framework.ManifestExists(root, framework.PackageJSON)
	compiled := framework.ManifestExists(root, framework.CargoTOML)
	switch {
	case script && compiled:
		return Hybrid
	case script:
		return ScriptOnly
	case compiled:
		return CompiledOnly
	default:
		return Uninitialized
	}
}

// EntryCandidates lists entry scripts in precedence order, relative to the
// project root.
var EntryCandidates = []string{filepath.Join("js", "index.js"), "index.js"}

// ResolveEntry returns the entry script relative to root.
func ResolveEntry(root string) (string, error) {
	for _, candidate := range EntryCandidates {
		if isFile(filepath.Join(root, candidate)) {
			return candidate, nil
		}
	}
	return "", framework.EntryPointMissing("index.js")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
