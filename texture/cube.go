package texture

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// cubeFaceCount is fixed by the GPU cubemap model.
const cubeFaceCount = 6

// faceLayout gives the cell coordinates (in face-size units) of the six
// faces within an unfolded cubemap image, in +X,-X,+Y,-Y,+Z,-Z order.
type faceLayout [cubeFaceCount]image.Point

var (
	layoutHorizontalCross = faceLayout{{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {3, 1}}
	layoutVerticalCross   = faceLayout{{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {1, 3}}
	layoutVerticalStrip   = faceLayout{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}}
	layoutHorizontalStrip = faceLayout{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}}
)

// cubeGrids lists the recognized unfolded arrangements by cell grid.
var cubeGrids = []struct {
	cols, rows int
	layout     faceLayout
}{
	{4, 3, layoutHorizontalCross},
	{3, 4, layoutVerticalCross},
	{1, 6, layoutVerticalStrip},
	{6, 1, layoutHorizontalStrip},
}

// detectCubeLayout recognizes the unfolded-cubemap arrangement from the
// image aspect. A pixel budget downscale rounds each axis independently,
// which can leave an unfolded cubemap a few pixels off the exact cell
// grid, so near-grid dimensions are accepted too; the caller resamples
// drifted images back onto the grid. Returns the layout, its cell grid
// and the face edge length.
func detectCubeLayout(w, h int) (layout faceLayout, cols, rows, face int, err error) {
	for _, g := range cubeGrids {
		face = int(math.Round((float64(w)/float64(g.cols) + float64(h)/float64(g.rows)) / 2))
		if face < 1 {
			continue
		}
		dw := absInt(w - g.cols*face)
		dh := absInt(h - g.rows*face)
		if dw == 0 && dh == 0 {
			return g.layout, g.cols, g.rows, face, nil
		}
		// Drift is only plausible for non-degenerate faces; without the
		// face floor, small near-4:3 images would pass as crosses.
		maxDrift := (max(g.cols, g.rows) + 1) / 2
		if face >= 4 && dw <= maxDrift && dh <= maxDrift {
			return g.layout, g.cols, g.rows, face, nil
		}
	}
	return faceLayout{}, 0, 0, 0, fmt.Errorf("unrecognized cubemap layout %dx%d", w, h)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// NewCubeTexture slices an unfolded cubemap image into six square faces and
// builds the per-level face slabs. When irradiance is set, second-order
// spherical-harmonic irradiance coefficients are computed from the faces.
//
// Recognized layouts: horizontal cross (4:3), vertical cross (3:4),
// vertical strip (1:6) and horizontal strip (6:1). Anything else is a
// decode error.
func NewCubeTexture(img *image.NRGBA, source string, irradiance bool) (*Texture, error) {
	b := img.Bounds()
	layout, cols, rows, size, err := detectCubeLayout(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if b.Dx() != cols*size || b.Dy() != rows*size {
		// Snap drifted dimensions back onto the cell grid so the faces
		// slice cleanly.
		snapped := image.NewNRGBA(image.Rect(0, 0, cols*size, rows*size))
		draw.CatmullRom.Scale(snapped, snapped.Bounds(), img, b, draw.Src, nil)
		img = snapped
	}

	faces := make([]*image.NRGBA, cubeFaceCount)
	for i, cell := range layout {
		face := image.NewNRGBA(image.Rect(0, 0, size, size))
		src := image.Rect(cell.X*size, cell.Y*size, (cell.X+1)*size, (cell.Y+1)*size)
		draw.Draw(face, face.Bounds(), img, src.Min, draw.Src)
		faces[i] = face
	}

	// Per-face mip chains, then concatenate the six faces per level.
	faceMips := make([][][]byte, cubeFaceCount)
	for i, face := range faces {
		faceMips[i] = buildMipsNRGBA(face)
	}
	levels := len(faceMips[0])
	mips := make([][]byte, levels)
	for lvl := 0; lvl < levels; lvl++ {
		slab := make([]byte, 0, len(faceMips[0][lvl])*cubeFaceCount)
		for i := 0; i < cubeFaceCount; i++ {
			slab = append(slab, faceMips[i][lvl]...)
		}
		mips[lvl] = slab
	}

	var irr []float32
	if irradiance {
		irr = irradianceSH(faces, size)
	}

	return newTexture(size, size, gputypes.TextureFormatRGBA8Unorm, ColorSpaceSRGB,
		cubeFaceCount, mips, irr, source)
}

// faceDirection maps face index and normalized face coordinates (u,v in
// [-1,1]) to a world-space direction.
func faceDirection(face int, u, v float64) (x, y, z float64) {
	switch face {
	case 0: // +X
		return 1, -v, -u
	case 1: // -X
		return -1, -v, u
	case 2: // +Y
		return u, 1, v
	case 3: // -Y
		return u, -1, -v
	case 4: // +Z
		return u, -v, 1
	default: // -Z
		return -u, -v, -1
	}
}

// irradianceSH projects the cubemap radiance into second-order spherical
// harmonics and convolves with the clamped cosine kernel, yielding 9
// coefficients per RGB channel (27 floats, band-major).
func irradianceSH(faces []*image.NRGBA, size int) []float32 {
	var coeffs [9][3]float64
	var weightSum float64

	for f, face := range faces {
		for j := 0; j < size; j++ {
			for i := 0; i < size; i++ {
				u := (2*(float64(i)+0.5))/float64(size) - 1
				v := (2*(float64(j)+0.5))/float64(size) - 1

				// Solid-angle weight of the texel.
				weight := 4 / math.Pow(u*u+v*v+1, 1.5)
				weightSum += weight

				x, y, z := faceDirection(f, u, v)
				inv := 1 / math.Sqrt(x*x+y*y+z*z)
				x, y, z = x*inv, y*inv, z*inv

				var sh [9]float64
				sh[0] = 0.282095
				sh[1] = 0.488603 * y
				sh[2] = 0.488603 * z
				sh[3] = 0.488603 * x
				sh[4] = 1.092548 * x * y
				sh[5] = 1.092548 * y * z
				sh[6] = 0.315392 * (3*z*z - 1)
				sh[7] = 1.092548 * x * z
				sh[8] = 0.546274 * (x*x - y*y)

				p := j*face.Stride + i*4
				r := float64(face.Pix[p+0]) / 255.0
				g := float64(face.Pix[p+1]) / 255.0
				b := float64(face.Pix[p+2]) / 255.0
				for k := 0; k < 9; k++ {
					coeffs[k][0] += r * sh[k] * weight
					coeffs[k][1] += g * sh[k] * weight
					coeffs[k][2] += b * sh[k] * weight
				}
			}
		}
	}

	// Normalize to the full sphere, then apply the cosine-lobe band factors.
	norm := 4 * math.Pi / weightSum
	bandFactor := [9]float64{
		math.Pi,
		2 * math.Pi / 3, 2 * math.Pi / 3, 2 * math.Pi / 3,
		math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4,
	}

	out := make([]float32, 0, 27)
	for k := 0; k < 9; k++ {
		scale := norm * bandFactor[k] / math.Pi
		for c := 0; c < 3; c++ {
			out = append(out, float32(coeffs[k][c]*scale))
		}
	}
	return out
}
