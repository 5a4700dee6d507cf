package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Chdir(root)
	return root
}

func TestRootsCommand(t *testing.T) {
	root := tempRoot(t)
	out, err := run(t, "roots", "--roots", root)
	require.NoError(t, err)
	assert.Equal(t, root+"\n", out)
}

func TestConvertCommand(t *testing.T) {
	root := tempRoot(t)
	src := filepath.Join(root, "receipt.txt")
	require.NoError(t, os.WriteFile(src, []byte("Amount: $12.50\n"), 0o644))

	out, err := run(t, "convert", src, "--roots", root, "--format", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "--- Page 1 ---\nAmount: $12.50"), out)

	_, err = run(t, "convert", "/etc/hostname", "--roots", root, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestConvertSaveCommand(t *testing.T) {
	root := tempRoot(t)
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o644))

	_, err := run(t, "convert", a, b, "--roots", root, "--format", "json")
	require.NoError(t, err)
	for _, p := range []string{a + ".json", b + ".json"} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestEmitConversionPrintsOutputWhenSaveFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	res := &pipeline.Result{Output: "# RECEIPT\n"}
	werr := &common.WriteError{Path: "/docs/out.md", Cause: errors.New("disk full")}
	err := emitConversion(cmd, res, werr)
	require.ErrorIs(t, err, common.ErrWrite)
	assert.Equal(t, "# RECEIPT\n", stdout.String())

	stdout.Reset()
	err = emitConversion(cmd, nil, common.ErrAccessDenied)
	require.ErrorIs(t, err, common.ErrAccessDenied)
	assert.Empty(t, stdout.String())

	err = emitConversion(cmd, &pipeline.Result{Output: "x", SavedTo: "/docs/out.md"}, nil)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "saved /docs/out.md\n", stderr.String())
}
