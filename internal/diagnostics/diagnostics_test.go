package diagnostics

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	kerrors "github.com/toyz/keel/internal/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTest(level Level) (*Diagnostics, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithWriters(level, &out, &errOut), &out, &errOut
}

func TestLevels(t *testing.T) {
	d, out, errOut := newTest(Info)

	d.Info("hello %s", "world")
	d.Verbose("hidden")
	d.Debug("hidden")
	d.Warn("careful")
	d.Error("broken")

	assert.Equal(t, "[INFO] hello world\n[WARN] careful\n", out.String())
	assert.Equal(t, "[ERROR] broken\n", errOut.String())
}

func TestSilent(t *testing.T) {
	d, out, errOut := newTest(Silent)

	d.Error("nope")
	d.ReportError(errors.New("nope"))
	d.Section("title")

	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestIndentation(t *testing.T) {
	d, out, _ := newTest(Info)

	d.Section("files")
	d.Indent()
	d.Created("users/module.go")
	d.List("item")
	d.Unindent()
	d.Unindent()
	d.Success("done")

	assert.Equal(t, "files\n  create users/module.go\n  - item\n[OK] done\n", out.String())
}

func TestReportError(t *testing.T) {
	err := kerrors.WrapHookError("db", "on_startup", errors.New("refused"), errors.New("hook failed")).
		WithContext("attempt", 3).
		WithSuggestion("Check the database URL")

	d, _, errOut := newTest(Info)
	d.ReportError(err)
	assert.Contains(t, errOut.String(), "HookError\n")
	assert.Contains(t, errOut.String(), "  at module db, hook on_startup\n")
	assert.Contains(t, errOut.String(), "* Check the database URL")
	assert.NotContains(t, errOut.String(), "attempt")

	d, _, errOut = newTest(Verbose)
	d.ReportError(err)
	assert.Contains(t, errOut.String(), "    attempt: 3\n")
}

func TestReportError_Plain(t *testing.T) {
	d, _, errOut := newTest(Error)
	d.ReportError(errors.New("disk full"))
	assert.Equal(t, "[ERROR] disk full\n", errOut.String())
}

func TestReportError_Multiple(t *testing.T) {
	multi := kerrors.NewMultipleErrors()
	multi.Add(kerrors.WrapFileSystemError("create", "a.go", os.ErrExist))
	multi.Add(kerrors.WrapFileSystemError("create", "b.go", os.ErrExist))

	d, _, errOut := newTest(Error)
	d.ReportError(multi)

	assert.Contains(t, errOut.String(), "[ERROR] 2 errors\n")
	assert.Contains(t, errOut.String(), "failed to create file 'a.go'")
	assert.Contains(t, errOut.String(), "failed to create file 'b.go'")
}
