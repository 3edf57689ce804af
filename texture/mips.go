package texture

import (
	"image"

	"golang.org/x/image/draw"
)

// mipLevels returns the number of levels in a full chain down to 1x1.
func mipLevels(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		n++
	}
	return n
}

// buildMipsNRGBA builds the full mip chain of a four-channel image.
// Level 0 is the packed pixel data of img itself; each further level is a
// bilinear floor-halving of the previous one.
func buildMipsNRGBA(img *image.NRGBA) [][]byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	mips := make([][]byte, 0, mipLevels(w, h))
	mips = append(mips, img.Pix)

	prev := img
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		next := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		mips = append(mips, next.Pix)
		prev = next
	}
	return mips
}

// buildMipsGray builds the full mip chain of a single-channel image.
func buildMipsGray(img *image.Gray) [][]byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	mips := make([][]byte, 0, mipLevels(w, h))
	mips = append(mips, img.Pix)

	prev := img
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		next := image.NewGray(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		mips = append(mips, next.Pix)
		prev = next
	}
	return mips
}
