// Package setup inspects the developer machine and the project directory and
// summarises which cpm capabilities are usable.
package setup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jetcrabcollab/cpm/internal/project"
	"github.com/jetcrabcollab/cpm/internal/toolchain"
	"github.com/jetcrabcollab/cpm/framework"
)

// ToolStatus describes one external toolchain.
type ToolStatus struct {
	Tool        framework.Tool `json:"tool"`
	Purpose     string         `json:"purpose"`
	Required    bool           `json:"required"`
	Available   bool           `json:"available"`
	Command     string         `json:"command,omitempty"`
	CommandPath string         `json:"command_path,omitempty"`
	Version     string         `json:"version,omitempty"`
	Requirement string         `json:"requirement,omitempty"`
	Satisfied   bool           `json:"satisfied"`
}

// Report is a snapshot of the environment for one project root.
type Report struct {
	Workspace   string       `json:"workspace"`
	GeneratedAt time.Time    `json:"generated_at"`
	Project     string       `json:"project"`
	Entry       string       `json:"entry,omitempty"`
	Rust        string       `json:"rust"`
	Sources     SourceCounts `json:"sources"`
	Tools       []ToolStatus `json:"tools"`
}

// SourceCounts counts script and compiled sources outside dependency folders.
type SourceCounts struct {
	Script   int `json:"script"`
	Compiled int `json:"compiled"`
}

var purposes = map[framework.Tool]string{
	framework.ToolNPM:      "script package manager",
	framework.ToolNPX:      "one-off package runner",
	framework.ToolCargo:    "compiled toolchain and standalone builds",
	framework.ToolWasmPack: "WebAssembly post-processing",
	framework.ToolJetCrab:  "preferred script runtime",
	framework.ToolNode:     "fallback script runtime",
	framework.ToolNodemon:  "file watcher for dev --watch",
}

// Detect probes every known tool and classifies root.
func Detect(ctx context.Context, probe framework.ToolProbe, root string) (*Report, error) {
	kind := project.Classify(root)
	report := &Report{
		Workspace:   root,
		GeneratedAt: time.Now(),
		Project:     kind.String(),
		Rust:        project.InspectRust(root).Status().String(),
	}
	if entry, err := project.ResolveEntry(root); err == nil {
		report.Entry = filepath.ToSlash(entry)
	}
	counts, err := scanSources(root)
	if err != nil {
		return nil, err
	}
	report.Sources = counts
	for _, tool := range framework.KnownTools {
		status := ToolStatus{Tool: tool, Purpose: purposes[tool], Required: required(tool, kind)}
		if req, ok := toolchain.Requirement(tool); ok {
			status.Requirement = req
		}
		if probe != nil {
			if inv, ok := probe.Probe(ctx, tool); ok {
				status.Available = true
				status.Command = inv.Name
				status.CommandPath = inv.Path
				if inv.Version != nil {
					status.Version = inv.Version.String()
				}
				status.Satisfied = toolchain.MeetsRequirement(inv)
			}
		}
		report.Tools = append(report.Tools, status)
	}
	return report, nil
}

// required reports whether kind cannot be worked on without tool.
func required(tool framework.Tool, kind project.Kind) bool {
	switch tool {
	case framework.ToolNPM:
		return kind.HasScript()
	case framework.ToolCargo:
		return kind.HasCompiled()
	case framework.ToolNode:
		return kind.HasScript()
	}
	return false
}

// Problems lists the required tools that are missing or too old.
func (r *Report) Problems() []ToolStatus {
	var out []ToolStatus
	for _, t := range r.Tools {
		if t.Required && (!t.Available || !t.Satisfied) {
			out = append(out, t)
		}
	}
	return out
}

// Tool finds the status of tool.
func (r *Report) Tool(tool framework.Tool) (ToolStatus, bool) {
	for _, t := range r.Tools {
		if t.Tool == tool {
			return t, true
		}
	}
	return ToolStatus{}, false
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	if r == nil {
		return errors.New("nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
	"target":       true,
	"pkg":          true,
	".cpm-build":   true,
}

func scanSources(root string) (SourceCounts, error) {
	var counts SourceCounts
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return counts, nil
		}
		return counts, err
	}
	if !info.IsDir() {
		return counts, nil
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".js", ".mjs", ".cjs", ".ts":
			counts.Script++
		case ".rs":
			counts.Compiled++
		}
		return nil
	})
	return counts, err
}
