package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/toyz/keel/internal/diagnostics"
	"github.com/toyz/keel/internal/scaffold"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: keel <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  new <name>    Create a module skeleton in ./<name>\n")
	fmt.Fprintf(w, "  help          Show this help\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  keel new users\n")
	fmt.Fprintf(w, "  keel new -dir internal users\n")
	fmt.Fprintf(w, "  keel new -module github.com/myorg/app/internal users\n")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "new":
		return runNew(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func runNew(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dirFlag     = fs.String("dir", ".", "Parent directory of the new module")
		moduleFlag  = fs.String("module", "", "Import path of -dir (defaults to the path derived from go.mod)")
		forceFlag   = fs.Bool("force", false, "Overwrite existing files")
		verboseFlag = fs.Bool("verbose", false, "Show detailed error output")
		quietFlag   = fs.Bool("quiet", false, "Only show errors")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: keel new [options] <name>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	level := diagnostics.Info
	switch {
	case *quietFlag:
		level = diagnostics.Error
	case *verboseFlag:
		level = diagnostics.Verbose
	}
	diag := diagnostics.NewWithWriters(level, stdout, stderr)

	name := fs.Arg(0)
	diag.Section("keel: new module " + name)
	result, err := scaffold.New(scaffold.Options{
		Name:       name,
		Dir:        *dirFlag,
		ModulePath: *moduleFlag,
		Force:      *forceFlag,
	})
	if err != nil {
		diag.ReportError(err)
		return 1
	}

	diag.Indent()
	for _, f := range result.Files {
		diag.Created(f)
	}
	diag.Unindent()
	diag.Success("module %s created", result.ImportPath)
	diag.Info("import it with keel.Imports(%s.Module)", name)
	return 0
}
