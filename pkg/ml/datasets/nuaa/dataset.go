// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/gomlx/nuaa/pkg/ml/datasets"
	"github.com/gomlx/nuaa/pkg/support/imgutil"
	"github.com/gomlx/nuaa/pkg/support/sets"
)

// ErrIndexOutOfRange is returned (wrapped) by Dataset.At for indices outside [0, Len()).
var ErrIndexOutOfRange = errors.New("index out of range")

// Dataset serves the images of one split of the NUAA dataset by index. Create it with New(...).Done().
//
// The index of files is built once, when the Dataset is created, and is read-only after that, so
// At can be called concurrently.
type Dataset struct {
	dataDir         string
	format          Format
	train           bool
	split           float64
	classes         sets.Set[int]
	transform       imgutil.Transform
	targetTransform func(spoof bool) bool
	fs              afero.Fs

	// paths[i] is labeled by labels[i]: true for spoof, false for genuine.
	paths  []string
	labels []bool
}

var _ datasets.RandomAccess = (*Dataset)(nil)

// Name returns a description of the dataset, e.g.: "NUAA raw [train]".
func (ds *Dataset) Name() string {
	split := "test"
	if ds.train {
		split = "train"
	}
	return fmt.Sprintf("NUAA %s [%s]", ds.format, split)
}

// Len returns the number of images in the dataset.
func (ds *Dataset) Len() int { return len(ds.paths) }

// Format returns the variant of the dataset.
func (ds *Dataset) Format() Format { return ds.format }

// IsTrain returns whether this is the training split.
func (ds *Dataset) IsTrain() bool { return ds.train }

// Split returns the fraction of each class directory used for training.
func (ds *Dataset) Split() float64 { return ds.split }

// Classes returns the selected classes, sorted.
func (ds *Dataset) Classes() []int { return sets.SortedKeys(ds.classes) }

// DataDir returns the directory of the variant, `<baseDir>/nuaa/<format>`.
func (ds *Dataset) DataDir() string { return ds.dataDir }

// Path returns the path of the image file of example index. It panics if index is out of range.
func (ds *Dataset) Path(index int) string { return ds.paths[index] }

// Label returns the label (true for spoof) of example index, before TargetTransform. It panics if
// index is out of range.
func (ds *Dataset) Label(index int) bool { return ds.labels[index] }

// Paths returns a copy of the paths of all examples.
func (ds *Dataset) Paths() []string { return slices.Clone(ds.paths) }

// Labels returns a copy of the labels of all examples, before TargetTransform.
func (ds *Dataset) Labels() []bool { return slices.Clone(ds.labels) }

// Count returns the number of genuine and spoof examples.
func (ds *Dataset) Count() (genuine, spoof int) {
	for _, label := range ds.labels {
		if label {
			spoof++
		} else {
			genuine++
		}
	}
	return
}

// At reads the image of the example at index, converted to RGB, and returns it with its label
// (true for spoof), after applying the configured Transform and TargetTransform.
//
// Images are read from disk at every call.
func (ds *Dataset) At(index int) (img image.Image, spoof bool, err error) {
	if index < 0 || index >= len(ds.paths) {
		err = errors.Wrapf(ErrIndexOutOfRange, "example #%d requested from %s, which has %d examples",
			index, ds.Name(), len(ds.paths))
		return
	}
	img, err = ds.readImage(ds.paths[index])
	if err != nil {
		return nil, false, err
	}
	if ds.transform != nil {
		img, err = ds.transform(img)
		if err != nil {
			return nil, false, errors.WithMessagef(err, "failed to transform image %q", ds.paths[index])
		}
	}
	spoof = ds.labels[index]
	if ds.targetTransform != nil {
		spoof = ds.targetTransform(spoof)
	}
	return
}

// readImage opens and decodes the image in path, and converts it to RGB.
func (ds *Dataset) readImage(path string) (*image.NRGBA, error) {
	f, err := ds.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %q", path)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %q", path)
	}
	return imgutil.ToRGB(img), nil
}
