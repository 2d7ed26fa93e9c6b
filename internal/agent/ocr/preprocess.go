package ocr

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor transforms a page image before recognition.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// Pipeline applies preprocessors in order.
type Pipeline []Preprocessor

func (p Pipeline) Apply(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	var err error
	for _, step := range p {
		img, err = step.Process(img)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errors.New("preprocessor returned nil image")
		}
	}
	return img, nil
}

// DefaultPipeline is grayscale, light denoise, contrast, adaptive threshold,
// sharpen.
func DefaultPipeline() Pipeline {
	return Pipeline{
		GrayscaleProcessor{},
		DenoiseProcessor{Sigma: 0.5},
		ContrastProcessor{Percentage: 20},
		AdaptiveThresholdProcessor{BlockSize: 11, Constant: 2},
		SharpenProcessor{Sigma: 0.5},
	}
}

type GrayscaleProcessor struct{}

func (GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

type DenoiseProcessor struct {
	Sigma float64
}

func (p DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Blur(img, p.Sigma), nil
}

type ContrastProcessor struct {
	Percentage float64
}

func (p ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.Percentage), nil
}

type SharpenProcessor struct {
	Sigma float64
}

func (p SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.Sigma), nil
}

// AdaptiveThresholdProcessor binarises against the mean of a BlockSize
// square around each pixel, computed from an integral image.
type AdaptiveThresholdProcessor struct {
	BlockSize int
	Constant  float64
}

func (p AdaptiveThresholdProcessor) Process(img image.Image) (image.Image, error) {
	gray := imaging.Grayscale(img) // *image.NRGBA, R=G=B
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	// integral[y+1][x+1] holds the sum of gray values in [0,x]x[0,y].
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(gray.Pix[y*gray.Stride+x*4])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}

	half := p.BlockSize / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			sum := integral[(y1+1)*(w+1)+x1+1] - integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] + integral[y0*(w+1)+x0]
			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			mean := float64(sum) / float64(count)

			v := 255
			if float64(gray.Pix[y*gray.Stride+x*4]) < mean-p.Constant {
				v = 0
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out, nil
}
