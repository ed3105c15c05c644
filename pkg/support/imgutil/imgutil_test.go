// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package imgutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(10 * y), B: 255, A: 0})
		}
	}
	return img
}

func TestToRGB(t *testing.T) {
	img := newTestImage(4, 3)
	assert.False(t, IsOpaque(img))
	rgb := ToRGB(img)
	assert.True(t, IsOpaque(rgb))
	assert.Equal(t, image.Rect(0, 0, 4, 3), rgb.Bounds())
	assert.Equal(t, color.NRGBA{R: 30, G: 20, B: 255, A: 255}, rgb.NRGBAAt(3, 2))

	// Gray images become 3-channel colour images.
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 100})
	assert.Equal(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, ToRGB(gray).NRGBAAt(1, 1))
}

func TestTransforms(t *testing.T) {
	img := ToRGB(newTestImage(40, 20))

	resized, err := Resize(10, 10)(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, 10), resized.Bounds().Size())

	resized, err = Resize(20, 0)(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 10), resized.Bounds().Size())

	_, err = Resize(0, 0)(img)
	require.Error(t, err)

	cropped, err := CenterCrop(8, 6)(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 6), cropped.Bounds().Size())

	filled, err := Fill(16, 16)(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 16), filled.Bounds().Size())

	gray, err := Grayscale()(img)
	require.NoError(t, err)
	r, g, b, _ := gray.At(5, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestChain(t *testing.T) {
	img := ToRGB(newTestImage(40, 20))
	out, err := Chain(Fill(10, 10), nil, Grayscale())(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, 10), out.Bounds().Size())

	called := false
	failing := func(image.Image) (image.Image, error) { return nil, errors.New("boom") }
	after := func(img image.Image) (image.Image, error) { called = true; return img, nil }
	_, err = Chain(failing, after)(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, called, "transforms after a failure should not run")
}

func TestToFloat32(t *testing.T) {
	img := ToRGB(newTestImage(3, 2))
	values, height, width := ToFloat32(img, 1.0)
	require.Equal(t, 2, height)
	require.Equal(t, 3, width)
	require.Len(t, values, 2*3*3)
	// Pixel (x=2, y=1): R=20, G=10, B=255.
	offset := (1*3 + 2) * 3
	assert.InDelta(t, 20.0/255.0, values[offset], 1e-6)
	assert.InDelta(t, 10.0/255.0, values[offset+1], 1e-6)
	assert.InDelta(t, 1.0, values[offset+2], 1e-6)
}
