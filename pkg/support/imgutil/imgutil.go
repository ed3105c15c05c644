// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package imgutil holds image conversions and transformations applied to dataset samples.
package imgutil

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Transform is applied to an image when a sample is read. It may return a new image or modify the given one.
type Transform func(img image.Image) (image.Image, error)

// Chain returns a Transform that applies the given transforms in order, stopping at the first error.
// nil transforms are skipped.
func Chain(transforms ...Transform) Transform {
	return func(img image.Image) (image.Image, error) {
		var err error
		for ii, transform := range transforms {
			if transform == nil {
				continue
			}
			img, err = transform(img)
			if err != nil {
				return nil, errors.WithMessagef(err, "image transform #%d failed", ii)
			}
		}
		return img, nil
	}
}

// ToRGB converts img to a 3-channel colour image: the result is an *image.NRGBA with every pixel fully opaque.
// Any alpha channel in the original is dropped (not composited).
func ToRGB(img image.Image) *image.NRGBA {
	rgb := imaging.Clone(img)
	for ii := 3; ii < len(rgb.Pix); ii += 4 {
		rgb.Pix[ii] = 0xFF
	}
	return rgb
}

// IsOpaque returns whether every pixel of the image is fully opaque.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return false
			}
		}
	}
	return true
}

// Resize returns a Transform that resizes images to width x height, not preserving the aspect ratio.
// If one of width or height is 0, the aspect ratio is preserved for that dimension.
func Resize(width, height int) Transform {
	return func(img image.Image) (image.Image, error) {
		if width < 0 || height < 0 || (width == 0 && height == 0) {
			return nil, errors.Errorf("invalid resize dimensions %dx%d", width, height)
		}
		return imaging.Resize(img, width, height, imaging.Lanczos), nil
	}
}

// CenterCrop returns a Transform that cuts a width x height rectangle from the center of the image.
// Images smaller than the requested size are cropped to their intersection.
func CenterCrop(width, height int) Transform {
	return func(img image.Image) (image.Image, error) {
		if width <= 0 || height <= 0 {
			return nil, errors.Errorf("invalid crop dimensions %dx%d", width, height)
		}
		return imaging.CropCenter(img, width, height), nil
	}
}

// Fill returns a Transform that scales images to cover a width x height area, preserving the aspect
// ratio, and crops the excess around the center.
func Fill(width, height int) Transform {
	return func(img image.Image) (image.Image, error) {
		if width <= 0 || height <= 0 {
			return nil, errors.Errorf("invalid fill dimensions %dx%d", width, height)
		}
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
	}
}

// Grayscale returns a Transform that converts the image to grayscale, still encoded in 3 channels.
func Grayscale() Transform {
	return func(img image.Image) (image.Image, error) {
		return imaging.Grayscale(img), nil
	}
}

// ToFloat32 converts img to a flat slice of float32 values laid out as [height, width, 3] (RGB),
// with each channel scaled to [0, maxValue]. The alpha channel is dropped.
func ToFloat32(img image.Image, maxValue float32) (values []float32, height, width int) {
	rgb := imaging.Clone(img)
	size := rgb.Bounds().Size()
	height, width = size.Y, size.X
	values = make([]float32, 0, height*width*3)
	scale := maxValue / 255.0
	for y := 0; y < height; y++ {
		row := rgb.Pix[y*rgb.Stride : y*rgb.Stride+width*4]
		for x := 0; x < width; x++ {
			pixel := row[x*4 : x*4+3]
			values = append(values, float32(pixel[0])*scale, float32(pixel[1])*scale, float32(pixel[2])*scale)
		}
	}
	return
}
