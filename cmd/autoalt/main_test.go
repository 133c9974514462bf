package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := "filter:\n  editImages: 2\n  addSize: false\n  siteRoot: .\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "autoalt.yaml"), []byte(cfg), 0o644))
	return dir
}

func TestFilterCommandUsesDocumentTitle(t *testing.T) {
	dir := writeSite(t)
	page := `<html><head><title>Annual &amp; Report</title></head><body><img src="a.jpg"></body></html>`
	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte(page), 0o644))

	out, err := run(t, "", "filter", file)
	require.NoError(t, err)
	assert.Contains(t, out, `<img alt="Annual &amp; Report" title="Annual &amp; Report" src="a.jpg">`)
	assert.Contains(t, out, `<title>Annual &amp; Report</title>`)
}

func TestFilterCommandStdinAndTitleFlag(t *testing.T) {
	writeSite(t)
	out, err := run(t, `<body><img src="b.png"></body>`, "filter", "-", "--title", "Shop")
	require.NoError(t, err)
	assert.Equal(t, `<body><img alt="Shop" title="Shop" src="b.png"></body>`, out)
}

func TestFilterCommandReport(t *testing.T) {
	writeSite(t)
	out, err := run(t, `<body><img alt="x" src="b.png"></body>`, "filter", "-", "--title", "Shop", "--report")
	require.NoError(t, err)
	assert.Contains(t, out, `"outcome": "skipped-alt"`)
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("AUTOALT_SESSION_JWT_SECRET", "hidden-value")
	writeSite(t)
	out, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "editImages: 2")
	assert.Contains(t, out, "autoalt.yaml")
	assert.NotContains(t, out, "hidden-value")
}

func TestFilterCommandMissingFile(t *testing.T) {
	writeSite(t)
	_, err := run(t, "", "filter", "does-not-exist.html")
	require.Error(t, err)
}
