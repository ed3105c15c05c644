// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package datasets

import (
	"io"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/support/xsync"
)

// ParallelDataset is a wrapper around a Dataset that parallelize calls to Yield, so images are
// read and decoded ahead of use. See details in CustomParallel.
type ParallelDataset struct {
	Dataset Dataset

	// name is set by default to the underlying dataset name.
	name, shortName string

	// parallelism is the number of goroutines started generating examples.
	parallelism int

	// extraBufferSize is the size of the buffer of pre-generated examples.
	extraBufferSize int

	// impl is the actual implementation.
	impl *parallelDatasetImpl
}

// parallelDatasetImpl separates the implementation of ParallelDataset.
type parallelDatasetImpl struct {
	config ParallelDataset // A copy of the configuration.

	err   error
	muErr sync.Mutex

	buffer                   chan Example
	epochFinished, stopEpoch chan struct{}
	stopDataset              *xsync.Latch

	// workers counts all running goroutines, across epochs.
	workers sync.WaitGroup
}

// Parallel parallelizes yield calls of any thread-safe Dataset.
//
// It uses CustomParallel and automatically starts it with the default parameters.
//
// Call ParallelDataset.Done when finished, to stop the goroutines.
//
// The order of the yields is not preserved.
//
// Example:
//
//	ds := datasets.Parallel(datasets.Sequential("train", nuaaTrain))
//	defer ds.Done()
func Parallel(ds Dataset) *ParallelDataset {
	pds := CustomParallel(ds)
	return pds.Buffer(pds.parallelism).Start()
}

// CustomParallel builds a ParallelDataset that can be used to parallelize any
// Dataset, as long as the underlying dataset ds is thread-safe.
//
// ParallelDataset can be further configured (see Parallelism and Buffer),
// and then one has to call Start before actually using the Dataset.
//
// Call ParallelDataset.Done when finished, to stop the goroutines.
func CustomParallel(ds Dataset) *ParallelDataset {
	pd := &ParallelDataset{
		name:      ds.Name(),
		shortName: ShortName(ds),
		Dataset:   ds,
	}
	pd.Parallelism(0) // 0 here means it will take the number of cores available.
	return pd
}

// Parallelism is the number of goroutines to start, each calling `ds.Yield()` in parallel.
// If set to 0 (the default), it will use the number of cores in the system plus 1.
//
// This must be called before a call to Start.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Parallelism(n int) *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset invalid configuration change after Start has been called.")
		return nil
	}
	if n <= 0 {
		n = runtime.NumCPU() + 1
	}
	pd.parallelism = n
	return pd
}

// WithName sets the name of the parallel dataset, and optionally its short name.
// It defaults to the original dataset name.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) WithName(name string, shortName ...string) *ParallelDataset {
	pd.name = name
	if len(shortName) > 0 {
		pd.shortName = shortName[0]
	}
	return pd
}

// Buffer reserved in the channel that collects the parallel yields.
// Notice there is already an intrinsic buffering that happens in the goroutines sampling
// in parallel.
//
// This must be called before a call to Start.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Buffer(n int) *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset invalid configuration change after Start has been called.")
		return nil
	}
	pd.extraBufferSize = n
	return pd
}

// Start indicates that the dataset is finished to be configured, and starts
// being a valid Dataset.
//
// After Start its configuration can no longer be changed.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Start() *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset.Start called more than once!?")
		return nil
	}
	impl := &parallelDatasetImpl{
		buffer:      make(chan Example, pd.extraBufferSize),
		stopDataset: xsync.NewLatch(),
		config:      *pd, // Copy.
	}
	pd.impl = impl
	impl.startGoRoutines()
	return pd
}

// stop closes the dataset, recording err (if not nil and if no error was recorded before).
func (impl *parallelDatasetImpl) stop(err error) {
	impl.muErr.Lock()
	defer impl.muErr.Unlock()
	if impl.err == nil {
		impl.err = err
	}
	impl.stopDataset.Trigger()
}

func (impl *parallelDatasetImpl) startGoRoutines() {
	impl.epochFinished = make(chan struct{})
	impl.stopEpoch = make(chan struct{})
	stopEpoch, epochFinished := impl.stopEpoch, impl.epochFinished
	var wg sync.WaitGroup
	for ii := 0; ii < impl.config.parallelism; ii++ {
		wg.Add(1)
		impl.workers.Add(1)
		go func() {
			defer impl.workers.Done()
			defer wg.Done()
			for {
				select {
				case <-stopEpoch:
					return
				case <-impl.stopDataset.WaitChan():
					return
				default:
					// Move forward and generate the next example.
				}
				example, err := impl.config.Dataset.Yield()
				if err == io.EOF {
					return
				}
				if err != nil {
					klog.Errorf("ParallelDataset %q: %+v", impl.config.name, err)
					// Fatal error, stop everything.
					impl.stop(err)
					return
				}
				select {
				case <-stopEpoch:
					return
				case <-impl.stopDataset.WaitChan():
					return
				case impl.buffer <- example:
					// Example generated and buffered, move to next.
				}
			}
		}()
	}

	// Controller: signals the end of the epoch once all goroutines finished.
	go func() {
		wg.Wait()
		if !impl.stopDataset.Test() {
			close(epochFinished)
		}
	}()
}

// Name implements Dataset.
func (pd *ParallelDataset) Name() string {
	return pd.name
}

// ShortName returns a short version of the dataset name, it implements HasShortName.
func (pd *ParallelDataset) ShortName() string {
	return pd.shortName
}

// Done stops the parallel goroutines and waits for them to finish.
func (pd *ParallelDataset) Done() {
	impl := pd.impl
	if impl == nil {
		return
	}
	pd.impl = nil
	impl.stop(nil)
	impl.workers.Wait()
}

// Reset implements Dataset.
func (pd *ParallelDataset) Reset() {
	impl := pd.impl
	if impl == nil {
		klog.Warningf("ParallelDataset.Reset was called before it was started with ParallelDataset.Start or after ParallelDataset.Done")
		return
	}

	// Indicate to goroutines to stop generating examples, and drain whatever is still in the buffer.
	close(impl.stopEpoch)
drainDataset:
	for {
		select {
		case <-impl.stopDataset.WaitChan():
			// Dataset was stopped (by an error), nothing to restart.
			return
		case <-impl.epochFinished:
			break drainDataset
		case <-impl.buffer:
			// Discard remaining entries that were in the buffer.
		}
	}
	for len(impl.buffer) > 0 {
		<-impl.buffer
	}

	// Reset underlying dataset and start again.
	impl.config.Dataset.Reset()
	impl.startGoRoutines()
}

// Yield implements Dataset.
func (pd *ParallelDataset) Yield() (Example, error) {
	impl := pd.impl
	if impl == nil {
		return Example{}, errors.Errorf("ParallelDataset.Yield was called before it was started with " +
			"ParallelDataset.Start or after it was stopped with ParallelDataset.Done")
	}
	select {
	case <-impl.stopDataset.WaitChan():
		// An error occurred, dataset is closed.
		impl.muErr.Lock()
		defer impl.muErr.Unlock()
		if impl.err == nil {
			return Example{}, errors.Errorf("ParallelDataset %q was stopped", pd.name)
		}
		return Example{}, impl.err
	case example := <-impl.buffer:
		return example, nil
	case <-impl.epochFinished:
		// No more examples being produced (until Reset() is called), but we still need to exhaust the buffer.
		select {
		case example := <-impl.buffer:
			return example, nil
		default:
			return Example{}, io.EOF
		}
	}
}
