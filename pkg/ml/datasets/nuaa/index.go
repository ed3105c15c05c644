// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nuaa

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/gomlx/nuaa/pkg/support/sets"
)

// categories are the directories holding class directories, with the label of their images.
var categories = []struct {
	dir   string
	spoof bool
}{
	{GenuineDir, false},
	{SpoofDir, true},
}

// classDir is a directory with the images of one subject.
type classDir struct {
	class int // 0-based.
	path  string
}

// buildIndex lists the images of the selected classes under dataDir, and returns the train (first
// `floor(split * count)` files of each class directory) or test (the remaining files) split.
//
// Files in each class directory are sorted by name before splitting, so splits are stable.
func buildIndex(fs afero.Fs, dataDir string, classes sets.Set[int], train bool, split float64) (
	paths []string, labels []bool, err error) {
	if len(classes) == 0 {
		return
	}
	for _, category := range categories {
		var dirs []classDir
		dirs, err = listClassDirs(fs, filepath.Join(dataDir, category.dir))
		if err != nil {
			return nil, nil, err
		}
		for _, dir := range dirs {
			if !classes.Has(dir.class) {
				continue
			}
			var files []string
			files, err = listImages(fs, dir.path)
			if err != nil {
				return nil, nil, err
			}
			cut := splitPoint(len(files), split)
			if train {
				files = files[:cut]
			} else {
				files = files[cut:]
			}
			for _, file := range files {
				paths = append(paths, file)
				labels = append(labels, category.spoof)
			}
		}
	}
	return
}

// splitPoint returns the number of files, out of count, that go to the train split.
func splitPoint(count int, split float64) int {
	cut := int(math.Floor(split * float64(count)))
	return min(max(cut, 0), count)
}

// listClassDirs returns the class sub-directories of dir, sorted by class.
// Sub-directories must be named with the 1-based class number.
func listClassDirs(fs afero.Fs, dir string) ([]classDir, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list class directories in %q", dir)
	}
	var dirs []classDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		number, err := strconv.Atoi(entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "class directory %q is not named with a class number", path)
		}
		dirs = append(dirs, classDir{class: number - 1, path: path})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].class < dirs[j].class })
	return dirs, nil
}

// listImages returns the paths of the image files in dir, sorted by name.
func listImages(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list images in %q", dir)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ImageExt) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
