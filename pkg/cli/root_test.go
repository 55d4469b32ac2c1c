package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects command output and logs for the test
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldLog := output, logOutput
	output, logOutput = &buf, io.Discard
	t.Cleanup(func() { output, logOutput = oldOut, oldLog })
	t.Setenv("SYMBOLGRAPH_LOG_LEVEL", "error")
	return &buf
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "symbolgraph", root.Name)
	assert.NotEmpty(t, root.Description)

	expectedCommands := []string{"convert", "watch", "serve", "publish"}
	for _, cmdName := range expectedCommands {
		require.Contains(t, root.Subcommands, cmdName)
		assert.NotNil(t, root.Subcommands[cmdName].Run, "Expected subcommand %s to be runnable", cmdName)
	}
	assert.Len(t, root.Subcommands, len(expectedCommands))
}

func TestCommandUsage(t *testing.T) {
	buf := captureOutput(t)

	require.NoError(t, NewRootCommand().usage())

	out := buf.String()
	assert.Contains(t, out, "Usage: symbolgraph <command> [args]")
	assert.Contains(t, out, "Commands:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("convert")), bytes.Index(buf.Bytes(), []byte("watch")), "commands listed in sorted order")
}

func TestCommandExecute_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--HELP"}, {"help"}} {
		buf := captureOutput(t)
		require.NoError(t, NewRootCommand().ExecuteArgs(context.Background(), args))
		assert.Contains(t, buf.String(), "Usage: symbolgraph")
	}
}

func TestCommandExecute_OSArgs(t *testing.T) {
	root := NewRootCommand()

	var receivedArgs []string
	root.Subcommands["test"] = &Command{
		Name: "test",
		Run: func(_ context.Context, args []string) error {
			receivedArgs = args
			return nil
		},
	}

	oldArgs := os.Args
	os.Args = []string{"symbolgraph", "test", "arg1", "-flag"}
	defer func() { os.Args = oldArgs }()

	require.NoError(t, root.Execute(context.Background()))
	assert.Equal(t, []string{"arg1", "-flag"}, receivedArgs)
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	err := NewRootCommand().ExecuteArgs(context.Background(), []string{"nonexistent"})
	assert.EqualError(t, err, "unknown command: nonexistent")
}
