package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bsfedit/pkg/document"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *testEnv) {
	t.Helper()
	env := newTestEnv(t, false)
	SetContainer(env.container)

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)

	doc := env.container.NewDocument()
	doc.Path = env.path("shell.bsf")
	return &shell{cmd: root, doc: doc, out: out}, out, env
}

func TestShell_EditAndSave(t *testing.T) {
	sh, out, env := newTestShell(t)

	steps := []struct {
		line string
		want string
	}{
		{line: "set greeting hello there", want: "Added greeting"},
		{line: "set farewell bye", want: "Added farewell"},
		{line: "set greeting hi", want: "Updated greeting"},
		{line: "get greeting", want: "hi"},
		{line: "move farewell -1", want: "Moved farewell to row 1"},
		{line: "list", want: "   1  farewell = bye"},
		{line: "search HI", want: "greeting = hi"},
		{line: "dups", want: "No duplicate keys"},
		{line: "help", want: "Commands:"},
	}
	for _, step := range steps {
		out.Reset()
		require.NoError(t, sh.exec(step.line), step.line)
		assert.Contains(t, out.String(), step.want, step.line)
	}
	assert.True(t, sh.dirty)

	assert.Error(t, sh.exec("quit"))

	require.NoError(t, sh.exec("save"))
	assert.False(t, sh.dirty)
	assert.ErrorIs(t, sh.exec("quit"), errQuit)

	d, err := document.Load(env.path("shell.bsf"))
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, "farewell", d.Entries[0].Key.String())
}

func TestShell_SetKeepsValueWhitespace(t *testing.T) {
	sh, _, _ := newTestShell(t)

	require.NoError(t, sh.exec("set k a  b\tc "))
	e, ok := sh.doc.Get("k")
	require.True(t, ok)
	assert.Equal(t, "a  b\tc ", e.Value.String())

	require.NoError(t, sh.exec("  set   empty"))
	e, ok = sh.doc.Get("empty")
	require.True(t, ok)
	assert.Equal(t, "", e.Value.String())
}

func TestRest(t *testing.T) {
	tests := []struct {
		line string
		n    int
		want string
	}{
		{line: "set k a  b", n: 2, want: "a  b"},
		{line: "  set\tk\t x ", n: 2, want: "x "},
		{line: "set k", n: 2, want: ""},
		{line: "search two  words", n: 1, want: "two  words"},
		{line: "", n: 1, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rest(tt.line, tt.n), tt.line)
	}
}

func TestShell_SaveAsAndImport(t *testing.T) {
	sh, _, env := newTestShell(t)
	extra := env.path("extra.json")
	require.NoError(t, os.WriteFile(extra, []byte(`{"x": "1", "y": "2"}`), 0600))

	require.NoError(t, sh.exec("import "+extra))
	assert.Equal(t, 2, sh.doc.Len())

	yamlPath := env.path("out.yaml")
	require.NoError(t, sh.exec("save "+yamlPath))
	assert.Equal(t, yamlPath, sh.doc.Path)

	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "x: \"1\"\ny: \"2\"\n", string(data))
}

func TestShell_Errors(t *testing.T) {
	sh, _, _ := newTestShell(t)
	require.NoError(t, sh.exec("set a 1"))

	tests := []struct {
		line    string
		wantErr string
	}{
		{line: "get", wantErr: "get requires a key"},
		{line: "get missing", wantErr: "key not found"},
		{line: "delete missing", wantErr: "key not found"},
		{line: "move a", wantErr: "move requires"},
		{line: "move a x", wantErr: "invalid row count"},
		{line: "move a 5", wantErr: "move out of range"},
		{line: "frobnicate", wantErr: "unknown command"},
		{line: "set", wantErr: "set requires"},
	}
	for _, tt := range tests {
		err := sh.exec(tt.line)
		assert.ErrorContains(t, err, tt.wantErr, tt.line)
	}

	assert.NoError(t, sh.exec("   "))
	assert.ErrorIs(t, sh.exec("quit!"), errQuit)
}
