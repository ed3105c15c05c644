// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/support/fsutil"
)

// GoogleDriveDownloadURL is the endpoint used to download publicly shared Google Drive files.
// The file id is passed in the "id" query parameter.
var GoogleDriveDownloadURL = "https://drive.google.com/uc"

// maxConfirmationPageSize limits how much of an HTML response is read looking for a download link.
const maxConfirmationPageSize = 1 << 20

var googleDriveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([-\w]+)`),
	regexp.MustCompile(`/d/([-\w]+)`),
	regexp.MustCompile(`[?&]id=([-\w]+)`),
}

// GoogleDriveFileID extracts the file id from a Google Drive link.
//
// It accepts the usual sharing links ("https://drive.google.com/file/d/<id>/view?usp=sharing"),
// "open?id=<id>" and "uc?id=<id>" links.
func GoogleDriveFileID(link string) (string, error) {
	for _, re := range googleDriveIDPatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1], nil
		}
	}
	return "", errors.Errorf("can't find a Google Drive file id in link %q", link)
}

// GoogleDriveURL returns the direct download URL for the given Google Drive file id.
func GoogleDriveURL(fileID string) string {
	return GoogleDriveDownloadURL + "?" + url.Values{"export": {"download"}, "id": {fileID}}.Encode()
}

// DownloadGoogleDrive downloads a publicly shared Google Drive file, given its sharing link, to filePath.
//
// Large files are not scanned for viruses by Google, and the first request returns an HTML page asking
// for confirmation: the confirmation form (or link) is parsed and followed.
func DownloadGoogleDrive(link, filePath string, showProgressBar bool) (size int64, err error) {
	filePath, err = fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return 0, err
	}
	fileID, err := GoogleDriveFileID(link)
	if err != nil {
		return 0, err
	}
	client := newClient()
	resp, err := get(client, GoogleDriveURL(fileID))
	if err != nil {
		return 0, errors.WithMessagef(err, "Google Drive link %q", link)
	}
	if isHTML(resp.Header.Get("Content-Type")) {
		page, err := io.ReadAll(io.LimitReader(resp.Body, maxConfirmationPageSize))
		_ = resp.Body.Close()
		if err != nil {
			return 0, errors.Wrapf(err, "failed reading Google Drive page for %q", link)
		}
		confirmURL, err := confirmationURL(page, resp.Request.URL)
		if err != nil {
			return 0, errors.WithMessagef(err, "Google Drive link %q (is the file shared publicly? "+
				"was the download quota exceeded?)", link)
		}
		klog.V(1).Infof("following Google Drive confirmation for %q", link)
		resp, err = get(client, confirmURL)
		if err != nil {
			return 0, errors.WithMessagef(err, "Google Drive link %q", link)
		}
		if isHTML(resp.Header.Get("Content-Type")) {
			_ = resp.Body.Close()
			return 0, errors.Errorf("Google Drive returned an HTML page instead of the file for %q, even "+
				"after confirmation", link)
		}
	}
	return saveResponse(resp, filePath, showProgressBar)
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}

// confirmationURL finds the URL to confirm the download in a Google Drive warning page.
//
// Newer pages have a `<form id="download-form">` with hidden inputs, older ones a link with a
// "confirm=" parameter.
func confirmationURL(page []byte, base *url.URL) (string, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse HTML page")
	}

	if form := findElement(root, func(n *html.Node) bool {
		return n.Data == "form" && getAttr(n, "id") == "download-form"
	}); form != nil {
		action, err := base.Parse(getAttr(form, "action"))
		if err != nil {
			return "", errors.Wrapf(err, "invalid download form action %q", getAttr(form, "action"))
		}
		query := action.Query()
		forEachElement(form, func(n *html.Node) {
			if n.Data == "input" && getAttr(n, "name") != "" && strings.EqualFold(getAttr(n, "type"), "hidden") {
				query.Set(getAttr(n, "name"), getAttr(n, "value"))
			}
		})
		action.RawQuery = query.Encode()
		return action.String(), nil
	}

	if link := findElement(root, func(n *html.Node) bool {
		return n.Data == "a" && (getAttr(n, "id") == "uc-download-link" || strings.Contains(getAttr(n, "href"), "confirm="))
	}); link != nil {
		href, err := base.Parse(getAttr(link, "href"))
		if err != nil {
			return "", errors.Wrapf(err, "invalid download link %q", getAttr(link, "href"))
		}
		return href.String(), nil
	}
	return "", errors.New("no download confirmation found in HTML page")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// forEachElement calls fn for every element node under n (n included), in document order.
func forEachElement(n *html.Node, fn func(n *html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachElement(c, fn)
	}
}

// findElement returns the first element under n (n included) for which match returns true, or nil.
func findElement(n *html.Node, match func(n *html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}
