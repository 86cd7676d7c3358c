package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_PlainMessages(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Status("working")
	w.Statusf("did %d things", 3)
	w.Success("done")
	w.Warning("careful")
	w.Error("failed")
	w.Header("Section")
	w.Dim("detail")

	want := "working\n" +
		"did 3 things\n" +
		"✓ done\n" +
		"! careful\n" +
		"✗ failed\n" +
		"Section\n" +
		"detail\n"
	assert.Equal(t, want, buf.String())
}

func TestWriter_NoANSIWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	// A bytes.Buffer is not a terminal, so New disables color too.
	w := New(&buf)
	w.Success("done")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriter_Block(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Block("line one\nline two")
	assert.Equal(t, "\n  line one\n  line two\n\n", buf.String())
}
