// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/support/fsutil"
	"github.com/gomlx/nuaa/pkg/support/imgutil"
	"github.com/gomlx/nuaa/pkg/support/sets"
)

// Config holds the configuration of a NUAA Dataset. Create it with New, configure it with the
// chained setters and build the Dataset with Done.
type Config struct {
	baseDir                  string
	format                   Format
	train, download, verbose bool
	split                    float64
	classes                  sets.Set[int]
	transform                imgutil.Transform
	targetTransform          func(spoof bool) bool
	fs                       afero.Fs
}

// New returns a configuration for a NUAA dataset stored under `<baseDir>/nuaa`.
// baseDir may start with "~", which is replaced by the user's home directory.
//
// The defaults are: Raw format, train split, split ratio DefaultSplit, class 0 only, no download,
// no transforms, reading from the OS filesystem.
func New(baseDir string) *Config {
	return &Config{
		baseDir: baseDir,
		format:  Raw,
		train:   true,
		split:   DefaultSplit,
		classes: sets.MakeWith(0),
		fs:      afero.NewOsFs(),
	}
}

// Format selects the variant of the dataset. Default is Raw.
func (c *Config) Format(format Format) *Config {
	c.format = format
	return c
}

// Train selects the training split (the first Split fraction of the files of each class directory) if
// true, or the test split (the remaining files) if false. Default is true.
func (c *Config) Train(train bool) *Config {
	c.train = train
	return c
}

// Download the dataset, if not yet there, when building it. Default is false.
func (c *Config) Download(download bool) *Config {
	c.download = download
	return c
}

// Verbose displays a progress bar while downloading. Default is false.
func (c *Config) Verbose(verbose bool) *Config {
	c.verbose = verbose
	return c
}

// Split sets the fraction of the files of each class directory used for training, in [0, 1].
// Default is DefaultSplit (0.8).
func (c *Config) Split(ratio float64) *Config {
	c.split = ratio
	return c
}

// Classes selects the subjects (0-based) included in the dataset. A single class is a set of one.
// With no arguments the dataset will be empty. Default is class 0.
func (c *Config) Classes(classes ...int) *Config {
	c.classes = sets.MakeWith(classes...)
	return c
}

// ClassSet is like Classes, but takes a set. The set is copied.
func (c *Config) ClassSet(classes sets.Set[int]) *Config {
	c.classes = classes.Clone()
	return c
}

// Transform is applied to every image read from the dataset, after it is converted to RGB.
func (c *Config) Transform(transform imgutil.Transform) *Config {
	c.transform = transform
	return c
}

// TargetTransform is applied to every label read from the dataset. Default is to return the label unchanged.
func (c *Config) TargetTransform(transform func(spoof bool) bool) *Config {
	c.targetTransform = transform
	return c
}

// WithFs sets the filesystem the dataset is read from. Default is the OS filesystem.
// Download requires the OS filesystem.
func (c *Config) WithFs(fs afero.Fs) *Config {
	c.fs = fs
	return c
}

// validate checks the configuration values.
func (c *Config) validate() error {
	if err := c.format.Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.split) || c.split < 0 || c.split > 1 {
		return errors.Errorf("NUAA split ratio must be in [0, 1], got %g", c.split)
	}
	for class := range c.classes {
		if class < 0 {
			return errors.Errorf("NUAA classes must be >= 0, got %d", class)
		}
	}
	if c.fs == nil {
		return errors.New("NUAA dataset configured with a nil filesystem")
	}
	if c.download {
		if _, isOS := c.fs.(*afero.OsFs); !isOS {
			return errors.Errorf("NUAA download requires the OS filesystem, got %s", c.fs.Name())
		}
	}
	return nil
}

// Done downloads the dataset (if configured to do so), indexes the files of the selected split
// and returns the Dataset.
//
// The index is built once, from the files on disk at the time of the call.
func (c *Config) Done() (*Dataset, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	baseDir, err := fsutil.ReplaceTildeInDir(c.baseDir)
	if err != nil {
		return nil, err
	}
	if c.download {
		if err = Download(baseDir, c.format, c.verbose); err != nil {
			return nil, err
		}
	}

	ds := &Dataset{
		dataDir:         filepath.Join(baseDir, RootSubdir, string(c.format)),
		format:          c.format,
		train:           c.train,
		split:           c.split,
		classes:         c.classes.Clone(),
		transform:       c.transform,
		targetTransform: c.targetTransform,
		fs:              c.fs,
	}
	ds.paths, ds.labels, err = buildIndex(ds.fs, ds.dataDir, ds.classes, ds.train, ds.split)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to index %s", ds.Name())
	}
	if klog.V(1).Enabled() {
		genuine, spoof := ds.Count()
		klog.Infof("%s: indexed %d images (%d genuine, %d spoof) from %q", ds.Name(), ds.Len(), genuine, spoof, ds.dataDir)
	}
	return ds, nil
}
