// Package toolchain resolves which external tools are installed and how they
// must be invoked on the current platform.
package toolchain

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	semver "github.com/Masterminds/semver/v3"

	"github.com/jetcrabcollab/cpm/framework"
)

// requirements lists minimum versions the engine relies on. cargo must
// understand edition 2021 for the standalone host manifest.
var requirements = map[framework.Tool]string{
	framework.ToolCargo: ">= 1.56.0",
}

var versionPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.\-]+)?)`)

type probeResult struct {
	inv framework.Invocation
	ok  bool
}

// Probe answers availability questions by running `<tool> --version`. Answers
// are memoized for the lifetime of the Probe, which is one process run.
type Probe struct {
	goos      string
	runner    framework.CommandRunner
	lookPath  func(string) (string, error)
	overrides map[framework.Tool]string

	mu    sync.Mutex
	cache map[framework.Tool]probeResult
}

// Option customizes a Probe.
type Option func(*Probe)

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Probe) { p.lookPath = fn }
}

// WithOverrides pins tools to specific executables, tried before the built-in
// candidates.
func WithOverrides(overrides map[string]string) Option {
	return func(p *Probe) {
		for tool, name := range overrides {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			p.overrides[framework.Tool(strings.ToLower(tool))] = name
		}
	}
}

// New builds a Probe for goos using runner for the version query.
func New(runner framework.CommandRunner, goos string, opts ...Option) *Probe {
	p := &Probe{
		goos:      goos,
		runner:    runner,
		lookPath:  exec.LookPath,
		overrides: map[framework.Tool]string{},
		cache:     map[framework.Tool]probeResult{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Candidates returns executable names to try for tool, platform specific
// variants first.
func (p *Probe) Candidates(tool framework.Tool) []string {
	var names []string
	if override, ok := p.overrides[tool]; ok {
		names = append(names, override)
	}
	generic := string(tool)
	if p.goos == "windows" {
		switch tool {
		case framework.ToolNPM, framework.ToolNPX, framework.ToolNodemon:
			names = append(names, generic+".cmd")
		}
	}
	return append(names, generic)
}

// Probe resolves tool, returning ok=false when no candidate answers.
func (p *Probe) Probe(ctx context.Context, tool framework.Tool) (framework.Invocation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if res, ok := p.cache[tool]; ok {
		return res.inv, res.ok
	}
	res := p.resolve(ctx, tool)
	p.cache[tool] = res
	return res.inv, res.ok
}

func (p *Probe) resolve(ctx context.Context, tool framework.Tool) probeResult {
	for _, name := range p.Candidates(tool) {
		path, err := p.lookPath(name)
		if err != nil {
			continue
		}
		out, err := p.runner.Run(ctx, framework.CommandRequest{Args: []string{name, "--version"}})
		if err != nil || !out.Success() {
			continue
		}
		raw := strings.TrimSpace(firstLine(out.Stdout + "\n" + out.Stderr))
		return probeResult{
			inv: framework.Invocation{
				Tool:    tool,
				Name:    name,
				Path:    path,
				Version: ParseVersion(raw),
				Raw:     raw,
			},
			ok: true,
		}
	}
	return probeResult{}
}

// ParseVersion extracts the first version-looking token from a --version line.
func ParseVersion(line string) *semver.Version {
	m := versionPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil
	}
	return v
}

// Requirement returns the version constraint cpm expects of tool, if any.
func Requirement(tool framework.Tool) (string, bool) {
	c, ok := requirements[tool]
	return c, ok
}

// MeetsRequirement reports whether inv satisfies the constraint registered for
// its tool. Unknown versions and tools without a constraint pass.
func MeetsRequirement(inv framework.Invocation) bool {
	raw, ok := requirements[inv.Tool]
	if !ok || inv.Version == nil {
		return true
	}
	c, err := semver.NewConstraint(raw)
	if err != nil {
		return true
	}
	return c.Check(inv.Version)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
