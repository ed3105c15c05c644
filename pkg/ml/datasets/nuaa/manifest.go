// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Manifest records which files make a split of the dataset, so an experiment can be reproduced
// or audited.
type Manifest struct {
	Format  Format   `yaml:"format"`
	Train   bool     `yaml:"train"`
	Split   float64  `yaml:"split"`
	Classes []int    `yaml:"classes"`
	Samples []Sample `yaml:"samples"`
}

// Sample is one entry of a Manifest.
type Sample struct {
	// Path of the image, relative to the variant directory (Dataset.DataDir).
	Path  string `yaml:"path"`
	Spoof bool   `yaml:"spoof"`
}

// Manifest returns the manifest of the dataset.
func (ds *Dataset) Manifest() *Manifest {
	m := &Manifest{
		Format:  ds.format,
		Train:   ds.train,
		Split:   ds.split,
		Classes: ds.Classes(),
		Samples: make([]Sample, len(ds.paths)),
	}
	for ii, path := range ds.paths {
		if rel, err := filepath.Rel(ds.dataDir, path); err == nil {
			path = rel
		}
		m.Samples[ii] = Sample{Path: filepath.ToSlash(path), Spoof: ds.labels[ii]}
	}
	return m
}

// WriteManifest saves m as YAML in filePath.
func WriteManifest(fs afero.Fs, filePath string, m *Manifest) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to encode NUAA manifest")
	}
	if err = fs.MkdirAll(filepath.Dir(filePath), 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory for manifest %q", filePath)
	}
	return errors.Wrapf(afero.WriteFile(fs, filePath, contents, 0644), "failed to write manifest %q", filePath)
}

// ReadManifest loads a manifest saved with WriteManifest.
func ReadManifest(fs afero.Fs, filePath string) (*Manifest, error) {
	contents, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %q", filePath)
	}
	m := &Manifest{}
	if err = yaml.Unmarshal(contents, m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %q", filePath)
	}
	if err = m.Format.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid manifest %q", filePath)
	}
	return m, nil
}
