// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package datasets

import (
	"io"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// SequentialDataset implements Dataset over a RandomAccess dataset.
//
// Yield is safe for concurrent use (see Parallel), as long as the source's At is.
type SequentialDataset struct {
	source RandomAccess
	name   string

	infinite bool

	// mu protects the fields below.
	mu      sync.Mutex
	shuffle *rand.Rand
	next    int
	order   []int // Permutation of the current epoch, when shuffling.
}

var _ Dataset = (*SequentialDataset)(nil)

// Sequential returns a Dataset that yields the examples of source in order, one epoch at a time.
//
// It can be further configured with Shuffle and Infinite.
func Sequential(name string, source RandomAccess) *SequentialDataset {
	return &SequentialDataset{source: source, name: name}
}

// Shuffle the examples with the given random number generator. If rng is nil, shuffling is disabled.
//
// In finite mode every epoch yields a new permutation of the examples. In infinite mode examples
// are sampled with replacement.
//
// It resets the dataset and returns itself, so calls can be cascaded.
func (ds *SequentialDataset) Shuffle(rng *rand.Rand) *SequentialDataset {
	ds.mu.Lock()
	ds.shuffle = rng
	ds.mu.Unlock()
	ds.Reset()
	return ds
}

// Infinite configures the dataset to loop over the examples forever, never returning io.EOF
// (unless the source is empty). Typically used for training a fixed number of steps.
//
// It returns itself, so calls can be cascaded.
func (ds *SequentialDataset) Infinite(infinite bool) *SequentialDataset {
	ds.infinite = infinite
	return ds
}

// Name implements Dataset.
func (ds *SequentialDataset) Name() string { return ds.name }

// Reset implements Dataset.
func (ds *SequentialDataset) Reset() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.next = 0
	ds.order = nil
	if ds.shuffle != nil && !ds.infinite {
		ds.order = ds.shuffle.Perm(ds.source.Len())
	}
}

// nextIndex returns the index of the next example to yield, or io.EOF.
func (ds *SequentialDataset) nextIndex() (int, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	numExamples := ds.source.Len()
	if numExamples == 0 {
		return 0, io.EOF
	}
	if ds.infinite {
		if ds.shuffle != nil {
			return ds.shuffle.Intn(numExamples), nil
		}
		index := ds.next
		ds.next = (ds.next + 1) % numExamples
		return index, nil
	}
	if ds.next >= numExamples {
		return 0, io.EOF
	}
	index := ds.next
	ds.next++
	if ds.order != nil {
		index = ds.order[index]
	}
	return index, nil
}

// Yield implements Dataset.
func (ds *SequentialDataset) Yield() (Example, error) {
	index, err := ds.nextIndex()
	if err != nil {
		return Example{}, err
	}
	img, label, err := ds.source.At(index)
	if err != nil {
		return Example{}, errors.WithMessagef(err, "dataset %q failed to read example #%d", ds.name, index)
	}
	return Example{Index: index, Image: img, Label: label}, nil
}
