package lspfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendReportsSDKAndPackageCaches(t *testing.T) {
	b := NewMemoryBackend()
	b.SDK = "/opt/sdk"
	b.PackageCaches = []string{"/opt/cache/a", "/opt/cache/b"}

	sdk, err := b.SDKPath(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/sdk", sdk)

	caches, err := b.PackageCachePaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/cache/a", "/opt/cache/b"}, caches)
}

func TestMemoryBackendInfoOnMissingPathReportsNotExists(t *testing.T) {
	b := NewMemoryBackend()
	info, err := b.Info(context.Background(), "/proj/missing.toit")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestMemoryBackendInfoOnRegularFileReturnsContent(t *testing.T) {
	b := NewMemoryBackend()
	b.Files["/proj/main.toit"] = []byte("global main() -> int {\n  return 0\n}\n")

	info, err := b.Info(context.Background(), "/proj/main.toit")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.True(t, info.IsRegular)
	assert.False(t, info.IsDirectory)
	assert.Equal(t, "global main() -> int {\n  return 0\n}\n", string(info.Content))
}

func TestMemoryBackendListDirectoryListsImmediateChildrenOnly(t *testing.T) {
	b := NewMemoryBackend()
	b.Files["/proj/main.toit"] = []byte("")
	b.Files["/proj/sub/nested.toit"] = []byte("")
	b.Dirs["/proj/sub"] = true

	names, err := b.ListDirectory(context.Background(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.toit", "sub"}, names)
}
