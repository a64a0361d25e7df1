package analysis

import (
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"patternforge/internal/models"
)

// Blend weights for combining the Canny edge mask with the raw gradient
// magnitude. Canny contributes localization, the magnitude contributes
// strength gradation.
const (
	cannyWeight    = 0.6
	gradientWeight = 0.4
)

// gradients computes per-pixel Sobel gradients. Returns magnitude and
// angle buffers; rows are processed in parallel.
func gradients(img *models.RasterImage) ([]float64, []float64) {
	w, h := img.Width, img.Height
	mag := make([]float64, w*h)
	ang := make([]float64, w*h)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < h; y++ {
		y := y
		g.Go(func() error {
			for x := 0; x < w; x++ {
				gx := -img.At(x-1, y-1) + img.At(x+1, y-1) +
					-2*img.At(x-1, y) + 2*img.At(x+1, y) +
					-img.At(x-1, y+1) + img.At(x+1, y+1)
				gy := -img.At(x-1, y-1) - 2*img.At(x, y-1) - img.At(x+1, y-1) +
					img.At(x-1, y+1) + 2*img.At(x, y+1) + img.At(x+1, y+1)
				mag[y*w+x] = math.Hypot(gx, gy)
				ang[y*w+x] = math.Atan2(gy, gx)
			}
			return nil
		})
	}
	g.Wait() // workers never return errors

	return mag, ang
}

// nonMaxSuppress thins the gradient magnitude to single-pixel ridges by
// zeroing pixels that are not local maxima along their gradient direction.
func nonMaxSuppress(mag, ang []float64, w, h int) []float64 {
	out := make([]float64, len(mag))
	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mag[y*w+x]
			if m == 0 {
				continue
			}
			// Quantize the gradient direction to one of four axes.
			theta := math.Mod(ang[y*w+x]+math.Pi, math.Pi)
			var a, b float64
			switch {
			case theta < math.Pi/8 || theta >= 7*math.Pi/8:
				a, b = at(x-1, y), at(x+1, y)
			case theta < 3*math.Pi/8:
				a, b = at(x-1, y-1), at(x+1, y+1)
			case theta < 5*math.Pi/8:
				a, b = at(x, y-1), at(x, y+1)
			default:
				a, b = at(x+1, y-1), at(x-1, y+1)
			}
			if m >= a && m >= b {
				out[y*w+x] = m
			}
		}
	}
	return out
}

// hysteresis links weak edge pixels to strong ones. Pixels above high are
// seeds; pixels above low survive only when 8-connected to a seed.
func hysteresis(thin []float64, w, h int, low, high float64) []float64 {
	const (
		none = iota
		weak
		strong
	)
	mark := make([]uint8, len(thin))
	stack := make([]int, 0, len(thin)/8)
	for i, v := range thin {
		switch {
		case v >= high:
			mark[i] = strong
			stack = append(stack, i)
		case v >= low:
			mark[i] = weak
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if mark[j] == weak {
					mark[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	out := make([]float64, len(thin))
	for i, m := range mark {
		if m == strong {
			out[i] = 1
		}
	}
	return out
}

// DetectEdges runs the blended edge detector: Gaussian smoothing, Sobel
// gradients, Canny thinning with hysteresis, then a weighted blend of the
// binary Canny mask and the normalized gradient magnitude. A blank image
// yields an all-zero map, not an error.
func (a *Analyzer) DetectEdges(img *models.RasterImage) (*models.EdgeMap, error) {
	if img == nil {
		return nil, models.NewInputError("image", "nil raster")
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) != img.Width*img.Height {
		return nil, models.NewInputError("image", "inconsistent raster %dx%d with %d pixels",
			img.Width, img.Height, len(img.Pixels))
	}

	smoothed := blurred(img, a.opts.BlurSigma)
	mag, ang := gradients(smoothed)

	maxMag := 0.0
	for _, m := range mag {
		if m > maxMag {
			maxMag = m
		}
	}
	edges := &models.EdgeMap{
		Width:     img.Width,
		Height:    img.Height,
		Magnitude: make([]float64, len(mag)),
		Angle:     ang,
	}
	if maxMag == 0 {
		a.log.Debug("edge detection on blank image", zap.Int("width", img.Width), zap.Int("height", img.Height))
		return edges, nil
	}
	norm := make([]float64, len(mag))
	for i, m := range mag {
		norm[i] = m / maxMag
	}

	thin := nonMaxSuppress(norm, ang, img.Width, img.Height)
	canny := hysteresis(thin, img.Width, img.Height, a.opts.LowThreshold, a.opts.HighThreshold)

	for i := range edges.Magnitude {
		edges.Magnitude[i] = cannyWeight*canny[i] + gradientWeight*norm[i]
	}
	a.log.Debug("edges detected",
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("edge_pixels", edges.EdgeCount()))
	return edges, nil
}
