// Package raster builds and preprocesses the grayscale rasters the
// analysis pipeline works on. Decoding of upload formats is the caller's
// responsibility; this package starts from a decoded image.Image or a raw
// intensity buffer.
package raster

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"patternforge/internal/models"
)

// Luminance channel weights (ITU-R BT.601).
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// FromImage converts a decoded image into a RasterImage. Grayscale is
// derived via luminance-weighted channel combination; the original color
// is retained as an RGBA buffer.
func FromImage(img image.Image) (*models.RasterImage, error) {
	if img == nil {
		return nil, models.NewInputError("image", "nil image")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, models.NewInputError("image", "empty bounds %dx%d", w, h)
	}

	pixels := make([]float64, w*h)
	colors := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit channels scaled to [0, 1].
			fr := float64(r) / 65535.0
			fg := float64(g) / 65535.0
			fb := float64(b) / 65535.0
			pixels[y*w+x] = lumR*fr + lumG*fg + lumB*fb

			i := (y*w + x) * 4
			colors[i+0] = uint8(r >> 8)
			colors[i+1] = uint8(g >> 8)
			colors[i+2] = uint8(b >> 8)
			colors[i+3] = uint8(a >> 8)
		}
	}

	return &models.RasterImage{Width: w, Height: h, Pixels: pixels, Color: colors}, nil
}

// FromGray builds a RasterImage from a raw intensity buffer in [0, 1].
func FromGray(width, height int, pixels []float64) (*models.RasterImage, error) {
	if width <= 0 || height <= 0 {
		return nil, models.NewInputError("image", "empty dimensions %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return nil, models.NewInputError("image", "pixel buffer length %d does not match %dx%d", len(pixels), width, height)
	}
	buf := make([]float64, len(pixels))
	copy(buf, pixels)
	return &models.RasterImage{Width: width, Height: height, Pixels: buf}, nil
}

// ToGrayImage renders the raster back to a 16-bit grayscale image, used
// for debug dumps of intermediate maps.
func ToGrayImage(r *models.RasterImage) image.Image {
	img := image.NewGray16(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.Pixels[y*r.Width+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535.0)})
		}
	}
	return img
}

// Downsample scales img so that neither dimension exceeds maxDim,
// preserving aspect ratio. Images already within the ceiling are returned
// unchanged.
func Downsample(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	var nw, nh int
	if w > h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// GaussianBlur returns a blurred copy of the raster using a separable
// Gaussian kernel of the given sigma. sigma <= 0 returns a plain copy.
func GaussianBlur(r *models.RasterImage, sigma float64) *models.RasterImage {
	out := &models.RasterImage{
		Width:  r.Width,
		Height: r.Height,
		Pixels: make([]float64, len(r.Pixels)),
	}
	if sigma <= 0 {
		copy(out.Pixels, r.Pixels)
		return out
	}

	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	tmp := make([]float64, len(r.Pixels))

	// Horizontal pass.
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			var sum, wsum float64
			for k := -half; k <= half; k++ {
				xx := x + k
				if xx < 0 || xx >= r.Width {
					continue
				}
				w := kernel[k+half]
				sum += r.Pixels[y*r.Width+xx] * w
				wsum += w
			}
			tmp[y*r.Width+x] = sum / wsum
		}
	}
	// Vertical pass.
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			var sum, wsum float64
			for k := -half; k <= half; k++ {
				yy := y + k
				if yy < 0 || yy >= r.Height {
					continue
				}
				w := kernel[k+half]
				sum += tmp[yy*r.Width+x] * w
				wsum += w
			}
			out.Pixels[y*r.Width+x] = sum / wsum
		}
	}
	return out
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		kernel[i+radius] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}
	return kernel
}

// Normalize rescales intensities to span [0, 1]. A uniform raster is
// returned unchanged; there is no contrast to stretch.
func Normalize(r *models.RasterImage) *models.RasterImage {
	out := &models.RasterImage{
		Width:  r.Width,
		Height: r.Height,
		Pixels: make([]float64, len(r.Pixels)),
	}
	min, max := r.Pixels[0], r.Pixels[0]
	for _, v := range r.Pixels {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		copy(out.Pixels, r.Pixels)
		return out
	}
	span := max - min
	for i, v := range r.Pixels {
		out.Pixels[i] = (v - min) / span
	}
	return out
}

// Preprocess applies the standard analysis preprocessing: Gaussian blur
// to reduce noise, then min-max normalization for contrast.
func Preprocess(r *models.RasterImage, blurSigma float64) *models.RasterImage {
	return Normalize(GaussianBlur(r, blurSigma))
}
