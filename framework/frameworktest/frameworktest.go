// Package frameworktest provides runner and probe doubles for exercising cpm
// commands against a temporary directory without real toolchains.
package frameworktest

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/jetcrabcollab/cpm/framework"
)

// Handler fakes one external command. It may touch the filesystem to mimic
// the tool's side effects.
type Handler func(req framework.CommandRequest) (*framework.CommandResult, error)

// Runner records every request and answers with the handler registered for
// the longest matching argv prefix. Unmatched commands succeed silently.
type Runner struct {
	mu       sync.Mutex
	handlers map[string]Handler
	Requests []framework.CommandRequest
}

// NewRunner builds an empty Runner.
func NewRunner() *Runner {
	return &Runner{handlers: map[string]Handler{}}
}

// On registers h for commands whose argv starts with prefix (space joined).
func (r *Runner) On(prefix string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = h
	return r
}

// Fail makes commands matching prefix exit with code 1 and stderr msg.
func (r *Runner) Fail(prefix, msg string) *Runner {
	return r.On(prefix, func(framework.CommandRequest) (*framework.CommandResult, error) {
		return &framework.CommandResult{ExitCode: 1, Stderr: msg}, nil
	})
}

// Run implements framework.CommandRunner.
func (r *Runner) Run(ctx context.Context, req framework.CommandRequest) (*framework.CommandResult, error) {
	r.mu.Lock()
	r.Requests = append(r.Requests, req)
	line := strings.Join(req.Args, " ")
	var best string
	var handler Handler
	for prefix, h := range r.handlers {
		if (line == prefix || strings.HasPrefix(line, prefix+" ")) && len(prefix) >= len(best) {
			best, handler = prefix, h
		}
	}
	r.mu.Unlock()
	if handler == nil {
		return &framework.CommandResult{}, nil
	}
	return handler(req)
}

// Commands returns the recorded argv lines.
func (r *Runner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Requests))
	for _, req := range r.Requests {
		out = append(out, req.String())
	}
	return out
}

// Probe reports a fixed set of tools as installed under their generic names.
type Probe struct {
	Tools map[framework.Tool]framework.Invocation
}

// NewProbe marks tools as available.
func NewProbe(tools ...framework.Tool) *Probe {
	p := &Probe{Tools: map[framework.Tool]framework.Invocation{}}
	for _, tool := range tools {
		p.Tools[tool] = framework.Invocation{Tool: tool, Name: string(tool), Path: "/usr/bin/" + string(tool)}
	}
	return p
}

// Probe implements framework.ToolProbe.
func (p *Probe) Probe(ctx context.Context, tool framework.Tool) (framework.Invocation, bool) {
	inv, ok := p.Tools[tool]
	return inv, ok
}

// Streams captures the stdio of a test run.
type Streams struct {
	Stdin  *bytes.Buffer
	Stdout *bytes.Buffer
	Stderr *bytes.Buffer
}

// NewStreams builds empty buffers; input is fed to stdin.
func NewStreams(input string) *Streams {
	return &Streams{
		Stdin:  bytes.NewBufferString(input),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	}
}

// Env wires the doubles into a framework.Env rooted at root.
func Env(root string, runner framework.CommandRunner, probe framework.ToolProbe, streams *Streams) framework.Env {
	return framework.Env{
		Root:   root,
		Stdin:  streams.Stdin,
		Stdout: streams.Stdout,
		Stderr: streams.Stderr,
		Runner: runner,
		Probe:  probe,
		Getenv: func(string) string { return "" },
		GOOS:   "linux",
	}
}

// Context builds an ExecutionContext for calling package level helpers
// directly.
func Context(root string, runner framework.CommandRunner, probe framework.ToolProbe, streams *Streams) *framework.ExecutionContext {
	return &framework.ExecutionContext{
		Root:    root,
		Console: framework.NewConsole(streams.Stderr, false),
		Logger:  framework.NewLogger(nil, false, false),
		Stdin:   streams.Stdin,
		Stdout:  streams.Stdout,
		Stderr:  streams.Stderr,
		Runner:  runner,
		Probe:   probe,
		Getenv:  func(string) string { return "" },
		GOOS:    "linux",
	}
}
