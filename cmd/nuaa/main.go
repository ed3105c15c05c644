// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// nuaa downloads the NUAA face anti-spoofing dataset, indexes one of its splits and prints a summary.
//
// Example:
//
//	nuaa -data=~/work -format=NormalizedFace -classes=all -download -verbose -verify
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"

	"github.com/gomlx/nuaa/pkg/ml/datasets/nuaa"
	"github.com/gomlx/nuaa/pkg/support/fsutil"
	"github.com/gomlx/nuaa/pkg/support/xslices"
)

var (
	flagDataDir = flag.String("data", "~/work", "Base directory where the dataset is downloaded to, "+
		"under the \"nuaa\" sub-directory.")
	flagFormat = flag.String("format", string(nuaa.Raw),
		fmt.Sprintf("Variant of the dataset, one of %q.", nuaa.Formats()))
	flagTrain       = flag.Bool("train", true, "Index the train split. If false, the test split.")
	flagSplit       = flag.Float64("split", nuaa.DefaultSplit, "Fraction of each class directory used for training.")
	flagClasses     = flag.String("classes", "0", "Comma-separated list of subjects (0-based) to include, or \"all\".")
	flagDownload    = flag.Bool("download", false, "Download and extract the dataset if not yet there.")
	flagVerbose     = flag.Bool("verbose", false, "Display a progress bar while downloading.")
	flagVerify      = flag.Bool("verify", false, "Read and decode every image of the split.")
	flagParallelism = flag.Int("parallelism", 0, "Number of images decoded in parallel by -verify. "+
		"If 0, the number of CPUs.")
	flagManifest = flag.String("manifest", "", "If set, save a YAML manifest of the split to this file.")
)

// parseClasses parses the value of -classes.
func parseClasses(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return nuaa.AllClasses(), nil
	}
	classes := []int{}
	if value == "" {
		return classes, nil
	}
	for _, part := range strings.Split(value, ",") {
		class, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid class %q in -classes=%q", part, value)
		}
		classes = append(classes, class)
	}
	return classes, nil
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	format, err := nuaa.ParseFormat(*flagFormat)
	if err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
	classes, err := parseClasses(*flagClasses)
	if err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
	ds, err := nuaa.New(*flagDataDir).
		Format(format).
		Train(*flagTrain).
		Split(*flagSplit).
		Classes(classes...).
		Download(*flagDownload).
		Verbose(*flagVerbose).
		Done()
	if err != nil {
		klog.Errorf("Failed to build dataset: %+v", err)
		os.Exit(1)
	}
	report(ds)

	if *flagVerify {
		if err = ds.Verify(context.Background(), *flagParallelism); err != nil {
			klog.Errorf("Verification failed: %+v", err)
			os.Exit(1)
		}
		fmt.Printf("All %s images decoded successfully.\n", humanize.Comma(int64(ds.Len())))
	}

	if *flagManifest != "" {
		manifestPath := must.M1(fsutil.ReplaceTildeInDir(*flagManifest))
		must.M(nuaa.WriteManifest(afero.NewOsFs(), manifestPath, ds.Manifest()))
		fmt.Printf("Manifest saved to %q.\n", manifestPath)
	}
}

// report prints a summary of the dataset.
func report(ds *nuaa.Dataset) {
	fmt.Println(titleStyle.Render(ds.Name()))
	genuine, spoof := ds.Count()
	table := newPlainTable()
	table.Row("directory", ds.DataDir())
	table.Row("classes", strings.Join(xslices.Map(ds.Classes(), strconv.Itoa), ","))
	table.Row("split", fmt.Sprintf("%g", ds.Split()))
	table.Row("# genuine", humanize.Comma(int64(genuine)))
	table.Row("# spoof", humanize.Comma(int64(spoof)))
	table.Row("# total", humanize.Comma(int64(ds.Len())))
	fmt.Println(table.Render())
}
