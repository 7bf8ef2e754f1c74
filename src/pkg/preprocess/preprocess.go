// Package preprocess binarizes rasterized receipt pages before OCR, the
// way src/pkg/ocr does in the teacher repo this was adapted from.
package preprocess

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Standard applies the default receipt pipeline: grayscale, double-height
// resize, mild sharpen, strong contrast, hard threshold.
func Standard(sourcePath, destinationPath string) (e *xerr.Error) {
	tl.Log(tl.Info1, palette.Blue, "Creating processed image from '%s' into '%s'", sourcePath, destinationPath)

	originalImage, openErr := imaging.Open(sourcePath)
	if openErr != nil {
		return xerr.NewError(openErr, "open source image for processing", sourcePath)
	}

	grayscaleImage := imaging.Grayscale(originalImage)

	bounds := grayscaleImage.Bounds()
	targetHeight := bounds.Dy() * 2
	resizedImage := imaging.Resize(grayscaleImage, 0, targetHeight, imaging.Lanczos)

	sharpenedImage := imaging.Sharpen(resizedImage, 1.0)
	highContrastImage := imaging.AdjustContrast(sharpenedImage, 100.0)
	binarizedImage := threshold(highContrastImage, 200)

	if saveErr := imaging.Save(binarizedImage, destinationPath); saveErr != nil {
		return xerr.NewError(saveErr, "save processed image", destinationPath)
	}

	tl.Log(tl.Info1, palette.Green, "Saved processed image to '%s'", destinationPath)
	return nil
}

// Handwritten applies a gentler profile for handwritten amount crops: a
// mild blur to smooth pen-stroke noise before the hard threshold, and a
// lower threshold since handwritten ink is usually fainter than printed
// thermal text. Used by the handwritten crop-retry path
// (runCroppedOCR in src/pkg/pipeline).
func Handwritten(sourcePath, destinationPath string) (e *xerr.Error) {
	tl.Log(tl.Info1, palette.Blue, "Creating handwritten-crop processed image from '%s' into '%s'", sourcePath, destinationPath)

	originalImage, openErr := imaging.Open(sourcePath)
	if openErr != nil {
		return xerr.NewError(openErr, "open source image for handwritten processing", sourcePath)
	}

	grayscaleImage := imaging.Grayscale(originalImage)
	bounds := grayscaleImage.Bounds()
	targetHeight := bounds.Dy() * 3
	resizedImage := imaging.Resize(grayscaleImage, 0, targetHeight, imaging.Lanczos)

	blurredImage := imaging.Blur(resizedImage, 0.6)
	highContrastImage := imaging.AdjustContrast(blurredImage, 80.0)
	dilatedImage := dilate(highContrastImage)
	binarizedImage := threshold(dilatedImage, 170)

	if saveErr := imaging.Save(binarizedImage, destinationPath); saveErr != nil {
		return xerr.NewError(saveErr, "save handwritten-crop processed image", destinationPath)
	}

	tl.Log(tl.Info1, palette.Green, "Saved handwritten-crop processed image to '%s'", destinationPath)
	return nil
}

func threshold(img image.Image, thresholdValue uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R > thresholdValue {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	})
}

// dilate approximates a 2x2 morphological dilation by OR-ing each pixel
// with its right and below neighbor, thickening thin handwritten strokes
// before thresholding.
func dilate(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	nrgba := imaging.Clone(img)
	out := imaging.Clone(img)

	darkest := func(x, y int) uint8 {
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			return 255
		}
		return nrgba.NRGBAAt(x, y).R
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := darkest(x, y)
			if r := darkest(x+1, y); r < v {
				v = r
			}
			if b := darkest(x, y+1); b < v {
				v = b
			}
			out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}
