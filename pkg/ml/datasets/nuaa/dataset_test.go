// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"context"
	"image"
	"io"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/nuaa/pkg/ml/datasets"
	"github.com/gomlx/nuaa/pkg/support/imgutil"
)

func TestAt(t *testing.T) {
	fs := newMemDataset(t, 5)
	ds := must.M1(New("/data").WithFs(fs).Split(1).Done())
	require.Equal(t, 10, ds.Len())
	for ii := range ds.Len() {
		img, spoof, err := ds.At(ii)
		require.NoError(t, err)
		assert.Equal(t, ds.Label(ii), spoof)
		rgb, ok := img.(*image.NRGBA)
		require.Truef(t, ok, "expected *image.NRGBA, got %T", img)
		assert.True(t, imgutil.IsOpaque(rgb))
		if spoof {
			assert.Equal(t, image.Pt(6, 8), img.Bounds().Size())
			c := rgb.NRGBAAt(3, 4)
			assert.Greater(t, c.B, c.R)
		} else {
			assert.Equal(t, image.Pt(8, 6), img.Bounds().Size())
			c := rgb.NRGBAAt(4, 3)
			assert.Greater(t, c.R, c.B)
		}
	}

	for _, index := range []int{-1, ds.Len(), ds.Len() + 10} {
		_, _, err := ds.At(index)
		require.Error(t, err)
		assert.Truef(t, errors.Is(err, ErrIndexOutOfRange), "index %d: unexpected error %v", index, err)
	}
}

func TestAtErrors(t *testing.T) {
	fs := newMemDataset(t, 2)
	ds := must.M1(New("/data").WithFs(fs).Split(1).Done())

	// Corrupt image.
	require.NoError(t, afero.WriteFile(fs, ds.Path(0), []byte("not an image"), 0644))
	_, _, err := ds.At(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ds.Path(0))
	assert.False(t, errors.Is(err, ErrIndexOutOfRange))

	// Image removed after the dataset was indexed: the index is not refreshed.
	require.NoError(t, fs.Remove(ds.Path(1)))
	assert.Equal(t, 4, ds.Len())
	_, _, err = ds.At(1)
	require.Error(t, err)

	// Other images are still fine.
	_, _, err = ds.At(2)
	require.NoError(t, err)
}

func TestTransforms(t *testing.T) {
	fs := newMemDataset(t, 3)
	ds := must.M1(New("/data").WithFs(fs).Split(1).
		Transform(imgutil.Resize(16, 16)).
		TargetTransform(func(spoof bool) bool { return !spoof }).
		Done())
	for ii := range ds.Len() {
		img, genuine, err := ds.At(ii)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(16, 16), img.Bounds().Size())
		assert.Equal(t, !ds.Label(ii), genuine, "TargetTransform should have been applied")
	}

	failing := must.M1(New("/data").WithFs(fs).Split(1).
		Transform(func(image.Image) (image.Image, error) { return nil, errors.New("transform failed") }).
		Done())
	_, _, err := failing.At(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform failed")
}

func TestSequentialIteration(t *testing.T) {
	fs := newMemDataset(t, 4, 4)
	ds := must.M1(New("/data").WithFs(fs).Classes(0, 1).Done())
	iter := datasets.Sequential(ds.Name(), ds)
	var count, spoof int
	for {
		example, err := iter.Yield()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, ds.Label(example.Index), example.Label)
		if example.Label {
			spoof++
		}
		count++
	}
	assert.Equal(t, ds.Len(), count)
	assert.Equal(t, ds.Len()/2, spoof)

	// Parallel prefetching over the same dataset.
	pds := datasets.CustomParallel(datasets.Sequential(ds.Name(), ds)).Parallelism(3).Buffer(2).Start()
	defer pds.Done()
	count = 0
	for {
		_, err := pds.Yield()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, ds.Len(), count)
}

func TestVerify(t *testing.T) {
	fs := newMemDataset(t, 6, 6)
	ds := must.M1(New("/data").WithFs(fs).Classes(AllClasses()...).Split(1).Done())
	require.NoError(t, ds.Verify(context.Background(), 4))
	require.NoError(t, ds.Verify(context.Background(), 0))

	require.NoError(t, afero.WriteFile(fs, ds.Path(7), []byte("garbage"), 0644))
	err := ds.Verify(context.Background(), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ds.Path(7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, ds.Verify(ctx, 1))
}

func TestManifest(t *testing.T) {
	fs := newMemDataset(t, 3, 5)
	ds := must.M1(New("/data").WithFs(fs).Classes(1, 0).Split(0.5).Train(false).Done())
	m := ds.Manifest()
	assert.Equal(t, Raw, m.Format)
	assert.False(t, m.Train)
	assert.Equal(t, 0.5, m.Split)
	assert.Equal(t, []int{0, 1}, m.Classes)
	require.Len(t, m.Samples, ds.Len())
	for ii, sample := range m.Samples {
		assert.Equal(t, ds.Path(ii), filepath.Join(ds.DataDir(), filepath.FromSlash(sample.Path)))
		assert.Equal(t, ds.Label(ii), sample.Spoof)
		assert.False(t, filepath.IsAbs(sample.Path))
	}

	manifestPath := "/manifests/test.yaml"
	require.NoError(t, WriteManifest(fs, manifestPath, m))
	loaded := must.M1(ReadManifest(fs, manifestPath))
	assert.Equal(t, m, loaded)

	require.NoError(t, afero.WriteFile(fs, "/manifests/bad.yaml", []byte("format: bogus\n"), 0644))
	_, err := ReadManifest(fs, "/manifests/bad.yaml")
	require.Error(t, err)
	_, err = ReadManifest(fs, "/manifests/missing.yaml")
	require.Error(t, err)
}
