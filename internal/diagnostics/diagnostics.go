// Package diagnostics prints leveled, colored CLI output and renders keel
// errors with their component, context and suggestions.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	kerrors "github.com/toyz/keel/internal/errors"
)

// Level controls how much output is shown
type Level int

const (
	Silent Level = iota
	Error
	Warn
	Info
	Verbose
	Debug
)

// Diagnostics writes CLI output at a given level
type Diagnostics struct {
	level  Level
	out    io.Writer
	errOut io.Writer
	indent int

	errLabel     *color.Color
	warnLabel    *color.Color
	infoLabel    *color.Color
	successLabel *color.Color
	debugLabel   *color.Color
	header       *color.Color
}

// New creates diagnostics writing to stdout and stderr
func New(level Level) *Diagnostics {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

// NewWithWriters creates diagnostics writing to out and errOut. Colors follow
// fatih/color's detection, which honours NO_COLOR.
func NewWithWriters(level Level, out, errOut io.Writer) *Diagnostics {
	return &Diagnostics{
		level:        level,
		out:          out,
		errOut:       errOut,
		errLabel:     color.New(color.FgRed, color.Bold),
		warnLabel:    color.New(color.FgYellow, color.Bold),
		infoLabel:    color.New(color.FgBlue),
		successLabel: color.New(color.FgGreen),
		debugLabel:   color.New(color.FgMagenta),
		header:       color.New(color.FgCyan, color.Bold),
	}
}

// Level returns the output level
func (d *Diagnostics) Level() Level {
	return d.level
}

func (d *Diagnostics) Error(format string, args ...any) {
	if d.level >= Error {
		d.write(d.errOut, d.errLabel, "ERROR", format, args...)
	}
}

func (d *Diagnostics) Warn(format string, args ...any) {
	if d.level >= Warn {
		d.write(d.out, d.warnLabel, "WARN", format, args...)
	}
}

func (d *Diagnostics) Info(format string, args ...any) {
	if d.level >= Info {
		d.write(d.out, d.infoLabel, "INFO", format, args...)
	}
}

func (d *Diagnostics) Success(format string, args ...any) {
	if d.level >= Info {
		d.write(d.out, d.successLabel, "OK", format, args...)
	}
}

func (d *Diagnostics) Verbose(format string, args ...any) {
	if d.level >= Verbose {
		d.write(d.out, d.infoLabel, "VERBOSE", format, args...)
	}
}

func (d *Diagnostics) Debug(format string, args ...any) {
	if d.level >= Debug {
		d.write(d.out, d.debugLabel, "DEBUG", format, args...)
	}
}

// Section prints a header line
func (d *Diagnostics) Section(title string) {
	if d.level >= Info {
		d.header.Fprintln(d.out, title)
	}
}

// List prints a bulleted item
func (d *Diagnostics) List(format string, args ...any) {
	if d.level >= Info {
		fmt.Fprintf(d.out, "%s- %s\n", d.prefix(), fmt.Sprintf(format, args...))
	}
}

// Created prints a path written to disk
func (d *Diagnostics) Created(path string) {
	if d.level >= Info {
		fmt.Fprintf(d.out, "%s%s %s\n", d.prefix(), d.successLabel.Sprint("create"), path)
	}
}

func (d *Diagnostics) Indent() {
	d.indent++
}

func (d *Diagnostics) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

func (d *Diagnostics) prefix() string {
	return strings.Repeat("  ", d.indent)
}

func (d *Diagnostics) write(w io.Writer, label *color.Color, level, format string, args ...any) {
	fmt.Fprintf(w, "%s%s %s\n", d.prefix(), label.Sprintf("[%s]", level), fmt.Sprintf(format, args...))
}

// ReportError prints err. keel errors are expanded with their component,
// context and suggestions; context is shown only at Verbose. Collected
// errors are reported one by one.
func (d *Diagnostics) ReportError(err error) {
	if err == nil || d.level < Error {
		return
	}
	var multi *kerrors.MultipleErrors
	if errors.As(err, &multi) && multi.Count() > 1 {
		d.Error("%d errors", multi.Count())
		for _, e := range multi.Errors {
			d.ReportError(e)
		}
		return
	}
	var kerr kerrors.KeelError
	if !errors.As(err, &kerr) {
		d.Error("%v", err)
		return
	}

	d.errLabel.Fprintf(d.errOut, "%s\n", kerr.ErrorCode())
	fmt.Fprintf(d.errOut, "  %v\n", err)
	if comp := kerr.Component(); !comp.IsEmpty() {
		fmt.Fprintf(d.errOut, "  at %s\n", comp)
	}

	if ctx := kerr.Context(); d.level >= Verbose && len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for k := range ctx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(d.errOut, "  context:")
		for _, k := range keys {
			fmt.Fprintf(d.errOut, "    %s: %v\n", k, ctx[k])
		}
	}

	if hints := kerr.Suggestions(); len(hints) > 0 {
		fmt.Fprintln(d.errOut, "  suggestions:")
		for _, hint := range hints {
			fmt.Fprintf(d.errOut, "    %s %s\n", d.warnLabel.Sprint("*"), hint)
		}
	}
}
