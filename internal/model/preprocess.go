package model

import (
	"image"

	"github.com/nfnt/resize"
)

// preprocessImage converts an image to the planar RGB layout the model expects.
func preprocessImage(img image.Image, m Metadata) []float32 {
	targetSize := uint(m.ImageSize)
	resized := resize.Resize(targetSize, targetSize, img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	inputData := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = normalize(float32(r)/65535.0, m, 0)
			inputData[plane+pixelIndex] = normalize(float32(g)/65535.0, m, 1)
			inputData[2*plane+pixelIndex] = normalize(float32(b)/65535.0, m, 2)
		}
	}
	return inputData
}

func normalize(v float32, m Metadata, channel int) float32 {
	if len(m.Mean) == 3 {
		v -= m.Mean[channel]
	}
	if len(m.Std) == 3 {
		v /= m.Std[channel]
	}
	return v
}
