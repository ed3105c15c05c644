// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	exists, err := FileExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	missing := filepath.Join(dir, "missing")
	exists, err = FileExists(missing)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, MustFileExists(missing))
}

func TestReplaceTildeInDir(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	got, err := ReplaceTildeInDir("~/work/nuaa")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "work/nuaa"), got)

	got, err = ReplaceTildeInDir("/tmp/nuaa")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nuaa", got)

	assert.Equal(t, "", MustReplaceTildeInDir(""))

	_, err = ReplaceTildeInDir("~user-that-does-not-exist-for-sure/x")
	require.Error(t, err)
}

func TestValidateChecksum(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("hello"), 0644))

	// sha256("hello")
	const helloHash = "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"
	require.NoError(t, ValidateChecksum(filePath, helloHash))
	assert.True(t, MustFileExists(filePath))

	err := ValidateChecksum(filePath, "0000")
	require.Error(t, err)
	assert.False(t, MustFileExists(filePath), "file failing the checksum should have been removed")
}

func TestByteCountIEC(t *testing.T) {
	assert.Equal(t, "10 B", ByteCountIEC(10))
	assert.Equal(t, "1.0 KiB", ByteCountIEC(1024))
	assert.Equal(t, "1.5 MiB", ByteCountIEC(3*1024*1024/2))
	assert.Equal(t, "-1.0 KiB", ByteCountIEC(-1024))
}
