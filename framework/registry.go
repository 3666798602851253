package framework

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Command is one cpm subcommand. Describe declares the name, help text,
// positional argument rules and flags; Execute runs the behaviour with the
// parsed flags available through the ExecutionContext.
type Command interface {
	Name() string
	Describe() *cobra.Command
	Execute(ctx context.Context, ec *ExecutionContext, args []string) error
}

// Registry keeps commands in registration order, which is also the order
// they appear in help output.
type Registry struct {
	commands []Command
	index    map[string]int
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a command. Registering the same name twice is a programming
// error and panics at startup.
func (r *Registry) Register(cmd Command) {
	name := cmd.Name()
	if _, exists := r.index[name]; exists {
		panic(fmt.Sprintf("command %s already registered", name))
	}
	r.index[name] = len(r.commands)
	r.commands = append(r.commands, cmd)
}

// Get fetches a command by exact name.
func (r *Registry) Get(name string) (Command, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.commands[i], true
}

// All returns the commands in registration order.
func (r *Registry) All() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Names lists command names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		names = append(names, cmd.Name())
	}
	return names
}
