// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package datasets defines the interfaces image datasets expose to a training loop, and utility
// datasets that can be combined: `Sequential`, `Take`, `Parallel`.
//
// A RandomAccess dataset (e.g.: nuaa.Dataset) serves examples by index. Sequential turns it into a
// Dataset, the iterator interface consumed by training and evaluation loops.
package datasets

import (
	"fmt"
	"image"
	"io"
)

// RandomAccess is a labeled dataset whose examples can be read by index, in any order.
//
// Implementations used with Parallel must allow concurrent calls to At.
type RandomAccess interface {
	// Len returns the number of examples.
	Len() int

	// At returns the image and label of the example at index, which must be in [0, Len()).
	At(index int) (img image.Image, label bool, err error)
}

// Example is one image yielded by a Dataset.
type Example struct {
	// Index of the example in the underlying RandomAccess dataset.
	Index int

	Image image.Image
	Label bool
}

// Dataset yields examples one at a time, as consumed by a training loop.
type Dataset interface {
	// Name identifies the dataset. Used for debugging and pretty-printing.
	Name() string

	// Reset restarts the dataset from the beginning. Can be called after io.EOF is reached,
	// for instance when running another evaluation on a test dataset.
	Reset()

	// Yield the next example, or io.EOF at the end of the epoch.
	Yield() (Example, error)
}

// HasShortName allows a dataset to specify a short name.
// It defaults to the first 3 letters of the dataset name.
type HasShortName interface {
	ShortName() string
}

// ShortName returns the short name of a dataset: HasShortName.ShortName if implemented, or the first
// 3 letters of its name.
func ShortName(ds Dataset) string {
	if sn, ok := ds.(HasShortName); ok {
		return sn.ShortName()
	}
	name := ds.Name()
	if len(name) > 3 {
		return name[:3]
	}
	return name
}

// takeDataset implements a Dataset that only yields `take` examples.
type takeDataset struct {
	ds          Dataset
	count, take int
}

// Take returns a wrapper to `ds`, a Dataset that only yields `n` examples.
func Take(ds Dataset, n int) Dataset {
	return &takeDataset{
		ds:   ds,
		take: n,
	}
}

// Name implements Dataset.
func (ds *takeDataset) Name() string {
	return fmt.Sprintf("%s [Take %d]", ds.ds.Name(), ds.take)
}

// Reset implements Dataset.
func (ds *takeDataset) Reset() {
	ds.ds.Reset()
	ds.count = 0
}

// Yield implements Dataset.
func (ds *takeDataset) Yield() (Example, error) {
	if ds.count >= ds.take {
		return Example{}, io.EOF
	}
	ds.count++
	return ds.ds.Yield()
}
