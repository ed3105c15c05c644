// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/nuaa/pkg/support/downloader"
)

// variantZip returns a zip archive with the layout of a NUAA variant: `count` images for each of the
// given classes, in both categories.
func variantZip(t *testing.T, format Format, count int, classes ...int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	contents := jpegBytes(t, 4, 4, color.RGBA{G: 128, A: 255})
	for _, category := range []string{GenuineDir, SpoofDir} {
		for _, class := range classes {
			dir := path.Join(string(format), category, fmt.Sprintf("%d", class+1))
			_, err := w.Create(dir + "/")
			require.NoError(t, err)
			for ii := range count {
				f, err := w.Create(path.Join(dir, imageName(class+1, ii)))
				require.NoError(t, err)
				_, err = f.Write(contents)
				require.NoError(t, err)
			}
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// fakeDrive serves the given archive for any Google Drive download, counting the requests.
func fakeDrive(t *testing.T, archive []byte) *atomic.Int32 {
	t.Helper()
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)
	previous := downloader.GoogleDriveDownloadURL
	downloader.GoogleDriveDownloadURL = server.URL + "/uc"
	t.Cleanup(func() { downloader.GoogleDriveDownloadURL = previous })
	return &count
}

func TestDownload(t *testing.T) {
	requests := fakeDrive(t, variantZip(t, Raw, 10, 0, 1))
	baseDir := t.TempDir()

	trainDS := must.M1(New(baseDir).Download(true).Classes(0).Done())
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 16, trainDS.Len())
	assert.FileExists(t, filepath.Join(baseDir, RootSubdir, Raw.ArchiveName()))
	assert.DirExists(t, filepath.Join(baseDir, RootSubdir, string(Raw), GenuineDir, "2"))

	// Files already there: no network call, same index.
	again := must.M1(New(baseDir).Download(true).Classes(0).Done())
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, trainDS.Paths(), again.Paths())
	assert.Equal(t, trainDS.Labels(), again.Labels())

	testDS := must.M1(New(baseDir).Download(true).Classes(0).Train(false).Done())
	assert.Equal(t, 4, testDS.Len())

	// Extracted directory removed: it's re-extracted from the archive, without downloading.
	require.NoError(t, os.RemoveAll(filepath.Join(baseDir, RootSubdir, string(Raw))))
	require.NoError(t, Download(baseDir, Raw, false))
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, trainDS.Manifest(), must.M1(New(baseDir).Classes(0).Done()).Manifest())
}

func TestDownloadErrors(t *testing.T) {
	// Archive without the variant directory.
	requests := fakeDrive(t, variantZip(t, DetectedFace, 2, 0))
	baseDir := t.TempDir()
	err := Download(baseDir, Raw, false)
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())

	// Corrupt archive.
	baseDir = t.TempDir()
	fakeDrive(t, []byte("not a zip file"))
	require.Error(t, Download(baseDir, NormalizedFace, false))

	// Unknown format.
	require.Error(t, Download(baseDir, Format("bogus"), false))
}
