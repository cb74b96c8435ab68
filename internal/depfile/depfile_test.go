package depfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadSet(t *testing.T) *loader.Set {
	t.Helper()
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "helper.toit"), "global h() -> int {\n  return 1\n}\n")
	writeFile(t, filepath.Join(proj, "main.toit"), "import helper\n\nglobal main() -> int {\n  return 0\n}\n")

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	l := loader.New(sources, lib, "", -1, -1)
	return l.LoadAll(filepath.Join(proj, "main.toit"))
}

func TestWritePlainListsEveryDependencyOnOneLine(t *testing.T) {
	set := loadSet(t)
	var sb strings.Builder
	require.NoError(t, Write(&sb, set, Plain))

	out := sb.String()
	assert.Contains(t, out, "main.toit:")
	assert.Contains(t, out, "helper.toit")
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.Contains(t, line, ":")
	}
}

func TestWriteNinjaEmitsPhonyTargetsForDependencies(t *testing.T) {
	set := loadSet(t)
	var sb strings.Builder
	require.NoError(t, Write(&sb, set, Ninja))

	out := sb.String()
	assert.Contains(t, out, "build")
	assert.Contains(t, out, ": phony")
	// the dependency itself must also get its own phony stanza so ninja
	// never treats it as missing.
	helperCount := strings.Count(out, "helper.toit")
	assert.GreaterOrEqual(t, helperCount, 2)
}

func TestParseFormatDefaultsToPlain(t *testing.T) {
	assert.Equal(t, Plain, ParseFormat(""))
	assert.Equal(t, Plain, ParseFormat("bogus"))
	assert.Equal(t, Ninja, ParseFormat("ninja"))
	assert.Equal(t, Ninja, ParseFormat("NINJA"))
}

func TestNinjaEscapeHandlesSpacesAndColons(t *testing.T) {
	assert.Equal(t, `foo$ bar$:baz`, ninjaEscape("foo bar:baz"))
}
