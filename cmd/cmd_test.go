package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes a fresh root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func workspace(t *testing.T) (db, catalog, img string) {
	t.Helper()
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("..", "internal", "ingest", "testdata", "site.json"))
	require.NoError(t, err)

	catalog = filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(catalog, src, 0o644))
	img = filepath.Join(dir, "placeholder.jpg")
	require.NoError(t, os.WriteFile(img, []byte("\xff\xd8\xff\xe0jpeg"), 0o644))
	return filepath.Join(dir, "seedling.db"), catalog, img
}

func TestImportPopulateInstances(t *testing.T) {
	db, catalog, img := workspace(t)

	out, _, err := run(t, "--db", db, "import", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 schema(s)")

	out, _, err = run(t, "--db", db, "plan", "--scope", "site", "--asset", img)
	require.NoError(t, err)
	assert.Contains(t, out, "3 schema(s) in 1 pass(es)")
	assert.Less(t, strings.Index(out, "tcm:1-13-8"), strings.Index(out, "tcm:1-10-8"))

	// plan writes nothing
	out, _, err = run(t, "--db", db, "instances")
	require.NoError(t, err)
	assert.NotContains(t, out, "tcm:1-10-8")

	out, logs, err := run(t, "--db", db, "--log-format", "json",
		"populate", "--scope", "site", "--folder", "site/seed", "--asset", img, "--prefix", "Seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 3 instance(s) in site/seed (1 pass(es))")
	assert.Contains(t, logs, `"message":"instance created"`)

	out, _, err = run(t, "--db", db, "instances", "--folder", "site/seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seed_Image_1")
	assert.Contains(t, out, "Seed_Person_2")
	assert.Contains(t, out, "Seed_Article_3")
	assert.Contains(t, out, "xxxxxxxx.jpg (mm:jpeg, 8 bytes)")
}

func TestLint(t *testing.T) {
	db, catalog, _ := workspace(t)
	_, _, err := run(t, "--db", db, "import", catalog)
	require.NoError(t, err)

	out, _, err := run(t, "--db", db, "lint", "--scope", "site")
	require.NoError(t, err)
	assert.Contains(t, out, `warning: tcm:1-10-8: field teaser: unknown field kind "xhtml" is left empty`)
	assert.Contains(t, out, "1 finding(s), no errors")

	broken := filepath.Join(filepath.Dir(db), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
schemas:
  - id: "tcm:2-1-8"
    purpose: Content
    scope: broken
    fields:
      - {name: ref, kind: component_link, min_occurs: 1, allowed_targets: ["tcm:1-11-8"]}
  - id: "tcm:2-2-8"
    purpose: Content
    scope: broken
`), 0o644))
	_, _, err = run(t, "--db", db, "import", broken)
	require.NoError(t, err)

	out, _, err = run(t, "--db", db, "lint", "--scope", "broken")
	require.Error(t, err)
	assert.Contains(t, out, "error: tcm:2-1-8: field ref: link target tcm:1-11-8")
	assert.Contains(t, out, "outside the populated scope")
}

func TestPopulate_RequiresFolder(t *testing.T) {
	db, _, _ := workspace(t)
	_, _, err := run(t, "--db", db, "populate", "--scope", "site")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder")
}

func TestPopulate_MultimediaWithoutAsset(t *testing.T) {
	db, catalog, _ := workspace(t)
	_, _, err := run(t, "--db", db, "import", catalog)
	require.NoError(t, err)

	_, _, err = run(t, "--db", db, "populate", "--scope", "site/media", "--folder", "f")
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	db, catalog, img := workspace(t)
	cfgPath := filepath.Join(filepath.Dir(db), "seedling.hcl")
	t.Setenv("SEEDLING_DB", db)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
database = env.SEEDLING_DB
scope    = "site"
folder   = "out"

naming {
  prefix = "Cfg"
}

asset {
  path = "`+img+`"
}
`), 0o644))

	_, _, err := run(t, "-c", cfgPath, "import", catalog)
	require.NoError(t, err)
	_, _, err = run(t, "-c", cfgPath, "populate")
	require.NoError(t, err)

	out, _, err := run(t, "-c", cfgPath, "instances", "--folder", "out")
	require.NoError(t, err)
	assert.Contains(t, out, "Cfg_Article_3")
}

func TestBadLogLevel(t *testing.T) {
	db, _, _ := workspace(t)
	_, _, err := run(t, "--db", db, "--log-level", "loud", "instances")
	require.Error(t, err)
}
