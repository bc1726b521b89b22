package encoder

import (
	"image"
	"image/color"
)

// imageSize is the square input resolution of the image tower.
const imageSize = 224

// Per-channel normalization constants of the pretrained model (RGB).
var (
	pixelMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	pixelStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// preprocess converts an image to the model's pixel contract: bilinear
// resize so the shorter side is imageSize, center crop to a square,
// per-channel mean/std normalization, NCHW float32 layout.
func preprocess(img image.Image) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Scale the shorter side to imageSize, preserving aspect ratio.
	var newW, newH int
	if w < h {
		newW = imageSize
		newH = (h*imageSize + w/2) / w
	} else {
		newH = imageSize
		newW = (w*imageSize + h/2) / h
	}
	resized := resizeBilinear(img, newW, newH)
	cropped := centerCrop(resized, imageSize)

	out := make([]float32, 3*imageSize*imageSize)
	plane := imageSize * imageSize
	for y := 0; y < imageSize; y++ {
		for x := 0; x < imageSize; x++ {
			c := cropped.RGBAAt(x, y)
			idx := y*imageSize + x
			out[idx] = (float32(c.R)/255 - pixelMean[0]) / pixelStd[0]
			out[plane+idx] = (float32(c.G)/255 - pixelMean[1]) / pixelStd[1]
			out[2*plane+idx] = (float32(c.B)/255 - pixelMean[2]) / pixelStd[2]
		}
	}
	return out
}

// resizeBilinear scales img to w×h with bilinear interpolation.
func resizeBilinear(img image.Image, w, h int) *image.RGBA {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	xRatio := float64(srcW) / float64(w)
	yRatio := float64(srcH) / float64(h)

	for y := 0; y < h; y++ {
		// Sample at pixel centers.
		sy := (float64(y)+0.5)*yRatio - 0.5
		if sy < 0 {
			sy = 0
		}
		y0 := int(sy)
		y1 := y0 + 1
		if y1 >= srcH {
			y1 = srcH - 1
		}
		fy := sy - float64(y0)

		for x := 0; x < w; x++ {
			sx := (float64(x)+0.5)*xRatio - 0.5
			if sx < 0 {
				sx = 0
			}
			x0 := int(sx)
			x1 := x0 + 1
			if x1 >= srcW {
				x1 = srcW - 1
			}
			fx := sx - float64(x0)

			c00 := rgbaAt(img, bounds.Min.X+x0, bounds.Min.Y+y0)
			c10 := rgbaAt(img, bounds.Min.X+x1, bounds.Min.Y+y0)
			c01 := rgbaAt(img, bounds.Min.X+x0, bounds.Min.Y+y1)
			c11 := rgbaAt(img, bounds.Min.X+x1, bounds.Min.Y+y1)

			dst.SetRGBA(x, y, color.RGBA{
				R: lerp2(c00.R, c10.R, c01.R, c11.R, fx, fy),
				G: lerp2(c00.G, c10.G, c01.G, c11.G, fx, fy),
				B: lerp2(c00.B, c10.B, c01.B, c11.B, fx, fy),
				A: 255,
			})
		}
	}
	return dst
}

// centerCrop extracts the central size×size square of img.
func centerCrop(img *image.RGBA, size int) *image.RGBA {
	bounds := img.Bounds()
	x0 := bounds.Min.X + (bounds.Dx()-size)/2
	y0 := bounds.Min.Y + (bounds.Dy()-size)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dst.SetRGBA(x, y, img.RGBAAt(x0+x, y0+y))
		}
	}
	return dst
}

// rgbaAt reads one pixel as 8-bit RGBA regardless of the source color model.
func rgbaAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
}

// lerp2 bilinearly interpolates four 8-bit samples.
func lerp2(c00, c10, c01, c11 uint8, fx, fy float64) uint8 {
	top := float64(c00)*(1-fx) + float64(c10)*fx
	bot := float64(c01)*(1-fx) + float64(c11)*fx
	v := top*(1-fy) + bot*fy
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}
