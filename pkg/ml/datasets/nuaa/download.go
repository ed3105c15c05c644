// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/support/downloader"
	"github.com/gomlx/nuaa/pkg/support/fsutil"
)

// Download makes sure the given variant is available under `<baseDir>/nuaa/<format>`.
//
// If the archive `<baseDir>/nuaa/<format>.zip` is missing it is downloaded, and if the variant
// directory is missing the archive is extracted. It's a no-op if both are already there.
//
// If verbose is set a progress bar is displayed during the download.
//
// There are no retries: a failed download or a corrupt archive returns an error.
func Download(baseDir string, format Format, verbose bool) error {
	if err := format.Validate(); err != nil {
		return err
	}
	baseDir, err := fsutil.ReplaceTildeInDir(baseDir)
	if err != nil {
		return err
	}
	root := filepath.Join(baseDir, RootSubdir)
	if err = os.MkdirAll(root, 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory %q for the NUAA dataset", root)
	}

	zipPath := filepath.Join(root, format.ArchiveName())
	found, err := fsutil.FileExists(zipPath)
	if err != nil {
		return err
	}
	if !found {
		link := DownloadLinks[format]
		klog.V(1).Infof("downloading NUAA %q from %q to %q", format, link, zipPath)
		if _, err = downloader.DownloadGoogleDrive(link, zipPath, verbose); err != nil {
			return errors.WithMessagef(err, "failed to download NUAA %q", format)
		}
	}

	dataDir := filepath.Join(root, string(format))
	found, err = fsutil.FileExists(dataDir)
	if err != nil || found {
		return err
	}
	klog.V(1).Infof("extracting %q into %q", zipPath, root)
	if err = downloader.Unzip(zipPath, root); err != nil {
		return errors.WithMessagef(err, "failed to extract NUAA %q", format)
	}
	if !fsutil.MustFileExists(dataDir) {
		return errors.Errorf("extracted %q, but didn't get directory %q", zipPath, dataDir)
	}
	return nil
}
