// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package downloader provides functions for downloading and extracting dataset archives.
//
// Downloads are written to a temporary file next to the target and renamed into place only
// when complete, so an interrupted download never looks like a downloaded file.
package downloader

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/support/fsutil"
)

// ProgressWriter is where progress bars are drawn.
var ProgressWriter io.Writer = os.Stderr

// copyBytesBar copies bytes from an io.Reader to an io.Writer while displaying a progressbar.
// If contentLength is not known (<= 0) it displays a spinner with the number of bytes copied.
type copyBytesBar struct {
	w                             io.Writer
	bar                           *progressbar.ProgressBar
	contentLength, amountWritten  int64
	barUnit, numUnits, addedUnits int64
}

// newCopyBytesBar creates a new copyBytesBar.
func newCopyBytesBar(w io.Writer, contentLength int64) *copyBytesBar {
	bar := &copyBytesBar{w: w, contentLength: contentLength, barUnit: 1}
	useColors := termenv.EnvColorProfile() != termenv.Ascii
	if contentLength <= 0 {
		bar.numUnits = -1
		bar.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(ProgressWriter),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionUseANSICodes(useColors),
		)
		return bar
	}
	for contentLength > bar.barUnit*1024*1024 {
		bar.barUnit *= 1024
	}
	bar.numUnits = (contentLength + bar.barUnit - 1) / bar.barUnit
	bar.bar = progressbar.NewOptions64(bar.numUnits,
		progressbar.OptionSetWriter(ProgressWriter),
		progressbar.OptionSetDescription(fsutil.ByteCountIEC(contentLength)),
		progressbar.OptionUseANSICodes(useColors),
		progressbar.OptionEnableColorCodes(useColors),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return bar
}

// Write implements io.Writer, while updating the progress bar.
func (bar *copyBytesBar) Write(p []byte) (n int, err error) {
	n, err = bar.w.Write(p)
	bar.amountWritten += int64(n)
	toUnits := bar.amountWritten / bar.barUnit
	if toUnits > bar.addedUnits {
		_ = bar.bar.Add64(toUnits - bar.addedUnits)
		bar.addedUnits = toUnits
	}
	return
}

// CopyWithProgressBar is similar to io.Copy, but updates a progress bar with the amount
// of data copied.
//
// contentLength can be <= 0 if unknown, in which case a spinner is displayed instead.
func CopyWithProgressBar(dst io.Writer, src io.Reader, contentLength int64) (n int64, err error) {
	bar := newCopyBytesBar(dst, contentLength)
	n, err = io.Copy(bar, src)
	if bar.numUnits > 0 && bar.addedUnits < bar.numUnits {
		_ = bar.bar.Add64(bar.numUnits - bar.addedUnits)
	}
	_ = bar.bar.Close()
	_, _ = fmt.Fprintln(ProgressWriter)
	return
}

// newClient returns an HTTP client that keeps cookies across redirects and requests.
// Cookies are needed for confirmation flows, like Google Drive's.
func newClient() *http.Client {
	jar, _ := cookiejar.New(nil) // Never returns an error with nil options.
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}

// get issues a GET request and fails if the response is not 200 OK.
// On success the caller owns the response body.
func get(client *http.Client, url string) (*http.Response, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed downloading %q", url)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("failed downloading %q: bad status code %d (%s)", url, resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// saveResponse writes the body of resp to filePath, creating its directory if needed, and closes the body.
func saveResponse(resp *http.Response, filePath string, showProgressBar bool) (size int64, err error) {
	defer func() { _ = resp.Body.Close() }()
	url := resp.Request.URL.String()
	dir := filepath.Dir(filePath)
	if err = os.MkdirAll(dir, 0777); err != nil {
		return 0, errors.Wrapf(err, "failed to create the directory for the path: %q", dir)
	}
	tmpPath := fmt.Sprintf("%s.partial-%s", filePath, uuid.NewString())
	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed creating file %q", tmpPath)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if showProgressBar {
		size, err = CopyWithProgressBar(file, resp.Body, resp.ContentLength)
	} else {
		size, err = io.Copy(file, resp.Body)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "downloading %q to %q", url, filePath)
	}
	if resp.ContentLength > 0 && size != resp.ContentLength {
		err = errors.Errorf("downloading %q to %q: got %d bytes, expected %d", url, filePath, size, resp.ContentLength)
		return 0, err
	}
	if err = file.Close(); err != nil {
		return 0, errors.Wrapf(err, "failed closing %q", tmpPath)
	}
	if err = os.Rename(tmpPath, filePath); err != nil {
		return 0, errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
	}
	klog.V(1).Infof("downloaded %s from %q to %q", fsutil.ByteCountIEC(size), url, filePath)
	return size, nil
}

// Download file from url and save it at the given path.
// It attempts to create the directory if it doesn't yet exist.
//
// Optionally, use showProgressBar.
func Download(url, filePath string, showProgressBar bool) (size int64, err error) {
	filePath, err = fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return 0, err
	}
	resp, err := get(newClient(), url)
	if err != nil {
		return 0, err
	}
	return saveResponse(resp, filePath, showProgressBar)
}

// DownloadIfMissing will check if the path exists already, and if not it will download the file
// from the given URL.
//
// If checkHash is provided, it checks that the file has the hash or fail.
func DownloadIfMissing(url, filePath, checkHash string, showProgressBar bool) error {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return err
	}
	exists, err := fsutil.FileExists(filePath)
	if err != nil {
		return err
	}
	if !exists {
		klog.Infof("Downloading %s ...", url)
		if _, err = Download(url, filePath, showProgressBar); err != nil {
			return err
		}
	}
	if checkHash == "" {
		return nil
	}
	return fsutil.ValidateChecksum(filePath, checkHash)
}

// DownloadAndUnzipIfMissing downloads `zipFile` from given url, if file not there yet.
// And then unzip it under directory `unzipBaseDir`, if the target `targetUnzipDir` directory is missing.
//
// It's recommended that all paths be absolute.
//
// If checkHash is provided, it checks that the file has the hash or fail.
func DownloadAndUnzipIfMissing(url, zipFile, unzipBaseDir, targetUnzipDir, checkHash string, showProgressBar bool) error {
	exists, err := fsutil.FileExists(targetUnzipDir)
	if err != nil || exists {
		return err
	}
	if err = DownloadIfMissing(url, zipFile, checkHash, showProgressBar); err != nil {
		return err
	}
	if err = Unzip(zipFile, unzipBaseDir); err != nil {
		return err
	}
	if !fsutil.MustFileExists(targetUnzipDir) {
		return errors.Errorf("downloaded from %q and unzip'ed %q, but didn't get directory %q", url, zipFile, targetUnzipDir)
	}
	return nil
}
