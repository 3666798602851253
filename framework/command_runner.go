package framework

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// StdioMode selects how a child process is wired to the terminal.
type StdioMode int

const (
	// StdioCapture buffers stdout and stderr so failures can be reported.
	StdioCapture StdioMode = iota
	// StdioInherit hands the terminal to the child (interactive tools, runtimes).
	StdioInherit
)

// CommandRequest captures process execution metadata. Args[0] is the binary.
type CommandRequest struct {
	Workdir string
	Args    []string
	Env     []string
	Stdio   StdioMode
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// String renders the argv the way it would be typed in a shell.
func (r CommandRequest) String() string {
	return strings.Join(r.Args, " ")
}

// CommandResult is the outcome of a process that was started.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit status.
func (r *CommandResult) Success() bool {
	return r != nil && r.ExitCode == 0
}

// CommandRunner executes external toolchains. Run blocks until the child
// exits; implementations must not impose a deadline of their own. A non-zero
// exit is reported through CommandResult.ExitCode, while err is reserved for
// processes that could not be started or were cancelled.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) (*CommandResult, error)
}

// ExecRunner launches commands with os/exec on the host.
type ExecRunner struct{}

// Run executes the requested command.
func (ExecRunner) Run(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	if len(req.Args) == 0 {
		return nil, errors.New("command arguments required")
	}
	cmd := exec.CommandContext(ctx, req.Args[0], req.Args[1:]...)
	cmd.Dir = req.Workdir
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}
	var stdout, stderr bytes.Buffer
	switch req.Stdio {
	case StdioInherit:
		cmd.Stdin = req.Stdin
		cmd.Stdout = req.Stdout
		cmd.Stderr = req.Stderr
	default:
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	err := cmd.Run()
	result := &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return nil, err
}

// FailureMessage picks the most useful text to surface for a failed command.
func FailureMessage(res *CommandResult) string {
	if res == nil {
		return ""
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(res.Stdout); msg != "" {
		return msg
	}
	return "exit status " + strconv.Itoa(res.ExitCode)
}
