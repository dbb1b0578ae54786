package layout

import (
	"image"
)

// preprocessor converts page images into the tensor layout the detection
// model expects.
type preprocessor struct {
	targetSize int
	mean       [3]float32
	std        [3]float32
}

func newPreprocessor(targetSize int) *preprocessor {
	return &preprocessor{
		targetSize: targetSize,
		// ImageNet normalization.
		mean: [3]float32{0.485, 0.456, 0.406},
		std:  [3]float32{0.229, 0.224, 0.225},
	}
}

// run resizes the image to targetSize x targetSize and returns a CHW float32
// tensor with shape [1, 3, H, W].
func (p *preprocessor) run(img image.Image) ([]float32, []int64) {
	resized := resize(img, p.targetSize, p.targetSize)

	w, h := p.targetSize, p.targetSize
	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()

			rn := (float32(r>>8)/255.0 - p.mean[0]) / p.std[0]
			gn := (float32(g>>8)/255.0 - p.mean[1]) / p.std[1]
			bn := (float32(b>>8)/255.0 - p.mean[2]) / p.std[2]

			idx := y*w + x
			data[idx] = rn
			data[h*w+idx] = gn
			data[2*h*w+idx] = bn
		}
	}
	return data, []int64{1, 3, int64(h), int64(w)}
}

// resize scales an image with nearest-neighbor sampling, which is good
// enough for detection input.
func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			srcX := x * srcW / width
			srcY := y * srcH / height
			dst.Set(x, y, img.At(srcX+bounds.Min.X, srcY+bounds.Min.Y))
		}
	}
	return dst
}
