package keel

import (
	"context"
	"flag"
	"fmt"
	"io"
	"reflect"
)

var commandContextType = reflect.TypeOf((*CommandContext)(nil))

// CommandContext is handed to a running command
type CommandContext struct {
	// Args are the positional arguments left after flag parsing
	Args []string
	// Flags holds the parsed flags declared with CommandFlags
	Flags *flag.FlagSet
	// Out is where the command should write its output
	Out io.Writer

	ctx context.Context
}

// Context returns the command's context, which carries the application
func (c *CommandContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Command is a CLI command contributed by a module
type Command struct {
	name    string
	usage   string
	run     any
	flagsFn func(*flag.FlagSet)
}

// CommandOption configures a command
type CommandOption func(*Command)

// CommandFlags declares the command's flags
func CommandFlags(fn func(fs *flag.FlagSet)) CommandOption {
	return func(c *Command) {
		c.flagsFn = fn
	}
}

// NewCommand declares a command. run has the form func(*CommandContext, deps...) error;
// deps are resolved from the container.
//
//	keel.NewCommand("seed", "load fixture data", func(cc *keel.CommandContext, items *ItemService) error {
//	    n, _ := strconv.Atoi(cc.Flags.Lookup("count").Value.String())
//	    return items.Seed(cc.Context(), n)
//	}, keel.CommandFlags(func(fs *flag.FlagSet) { fs.Int("count", 10, "items to create") }))
func NewCommand(name, usage string, run any, opts ...CommandOption) *Command {
	c := &Command{name: name, usage: usage, run: run}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the command name
func (c *Command) Name() string {
	return c.name
}

// Usage returns the one-line description
func (c *Command) Usage() string {
	return c.usage
}

// FlagSet builds a fresh flag set for the command
func (c *Command) FlagSet(out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(out)
	if c.flagsFn != nil {
		c.flagsFn(fs)
	}
	return fs
}

func (c *Command) validate() (*injectable, error) {
	if c.name == "" {
		return nil, fmt.Errorf("%w: command name is empty", ErrImproperConfiguration)
	}
	inj, err := newInjectable(c.run, commandContextType)
	if err != nil {
		return nil, fmt.Errorf("%w: command %s: %v", ErrImproperConfiguration, c.name, err)
	}
	if inj.results != 0 {
		return nil, fmt.Errorf("%w: command %s must return only an error", ErrImproperConfiguration, c.name)
	}
	return inj, nil
}

// boundCommand is a command with its dependencies resolved
type boundCommand struct {
	cmd    *Command
	module string
	run    func(cc *CommandContext) error
}
