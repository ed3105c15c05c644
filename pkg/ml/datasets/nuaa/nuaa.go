// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package nuaa provides the NUAA Photograph Imposter Database, a face anti-spoofing dataset of genuine
// face captures and photographs of faces (spoof attacks) of 15 subjects.
//
// The dataset is distributed in three variants (see Format): the raw captures and two
// pre-processed versions with detected and normalized faces. After extraction each variant is laid out as:
//
//	<baseDir>/nuaa/<format>/ClientRaw/<N>/*.jpg    -- genuine captures of subject N (label false)
//	<baseDir>/nuaa/<format>/ImposterRaw/<N>/*.jpg  -- spoof captures of subject N (label true)
//
// Subjects (classes) are numbered from 1 in the directory names, and from 0 when selected with
// Config.Classes.
//
// Example:
//
//	trainDS, err := nuaa.New("~/work").Download(true).Train(true).Classes(nuaa.AllClasses()...).Done()
//	...
//	img, spoof, err := trainDS.At(0)
package nuaa

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/gomlx/nuaa/pkg/support/xslices"
)

// Format is the variant of the dataset: raw images or one of the pre-processed versions.
type Format string

const (
	// Raw images, as captured.
	Raw Format = "raw"

	// DetectedFace holds the faces cropped by a face detector.
	DetectedFace Format = "Detectedface"

	// NormalizedFace holds the detected faces, aligned and normalized.
	NormalizedFace Format = "NormalizedFace"
)

// Formats returns all the known dataset variants.
func Formats() []Format {
	return []Format{Raw, DetectedFace, NormalizedFace}
}

// ParseFormat converts a variant name to a Format. The match is case-insensitive.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown NUAA format %q, valid formats are %q", name, Formats())
}

// Validate returns an error if f is not one of the known formats.
func (f Format) Validate() error {
	for _, known := range Formats() {
		if f == known {
			return nil
		}
	}
	return errors.Errorf("unknown NUAA format %q, valid formats are %q", string(f), Formats())
}

// String implements fmt.Stringer.
func (f Format) String() string { return string(f) }

// ArchiveName is the name of the zip file with the variant.
func (f Format) ArchiveName() string { return string(f) + ".zip" }

// DownloadLinks are the Google Drive sharing links of each variant archive.
var DownloadLinks = map[Format]string{
	Raw:            "https://drive.google.com/file/d/1-aSGKdAIK0YoKxQvnNx1KJvTm4zbwZLz/view?usp=sharing",
	DetectedFace:   "https://drive.google.com/file/d/1oE6yv-RYV5_4HDjUo6F8mJofzrW_tdTo/view?usp=sharing",
	NormalizedFace: "https://drive.google.com/file/d/1LT8LThFu3uJ3JdLRDb1c599YwzBEAcAS/view?usp=sharing",
}

const (
	// RootSubdir is the sub-directory of the base directory where archives are downloaded and extracted.
	RootSubdir = "nuaa"

	// GenuineDir holds the class directories with genuine captures.
	GenuineDir = "ClientRaw"

	// SpoofDir holds the class directories with spoof (imposter) captures.
	SpoofDir = "ImposterRaw"

	// ImageExt is the extension of the indexed image files.
	ImageExt = ".jpg"

	// NumSubjects is the number of subjects (classes) in the dataset.
	NumSubjects = 15

	// DefaultSplit is the default fraction of each class directory used for training.
	DefaultSplit = 0.8
)

// AllClasses returns the indices of all the subjects, 0 to NumSubjects-1.
func AllClasses() []int {
	return xslices.Iota(0, NumSubjects)
}
