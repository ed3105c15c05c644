// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Verify reads and decodes every image of the dataset, using up to parallelism goroutines
// (the number of CPUs if <= 0), and returns the first error found.
//
// It stops early if ctx is cancelled.
func (ds *Dataset) Verify(ctx context.Context, parallelism int) error {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for ii, path := range ds.paths {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := ds.readImage(path); err != nil {
				return errors.WithMessagef(err, "%s example #%d", ds.Name(), ii)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "verification of %s interrupted", ds.Name())
	}
	klog.V(1).Infof("%s: all %d images verified", ds.Name(), ds.Len())
	return nil
}
