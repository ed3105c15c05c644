// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Unzip extracts zipFile under baseDir, creating any directories needed.
//
// Existing files are overwritten. Entries that would land outside baseDir (e.g.: "../x") fail the extraction.
// Files extracted before a failure are left in place.
func Unzip(zipFile, baseDir string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open zip file %q", zipFile)
	}
	defer func() { _ = r.Close() }()

	baseDir = filepath.Clean(baseDir)
	if err = os.MkdirAll(baseDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %q to unzip %q", baseDir, zipFile)
	}
	var numFiles int
	for _, f := range r.File {
		if err = extractZipEntry(f, baseDir); err != nil {
			return errors.WithMessagef(err, "while unzipping %q", zipFile)
		}
		if !f.FileInfo().IsDir() {
			numFiles++
		}
	}
	klog.V(1).Infof("unzipped %d files from %q into %q", numFiles, zipFile, baseDir)
	return nil
}

func extractZipEntry(f *zip.File, baseDir string) error {
	target := filepath.Join(baseDir, filepath.FromSlash(f.Name))
	if target != baseDir && !strings.HasPrefix(target, baseDir+string(os.PathSeparator)) {
		return errors.Errorf("zip entry %q points outside of the target directory %q", f.Name, baseDir)
	}
	if f.FileInfo().IsDir() {
		return errors.Wrapf(os.MkdirAll(target, 0755), "failed to create directory %q", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %q", filepath.Dir(target))
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open zip entry %q", f.Name)
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", target)
	}
	if _, err = io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "failed to extract %q to %q", f.Name, target)
	}
	return errors.Wrapf(out.Close(), "failed closing %q", target)
}
