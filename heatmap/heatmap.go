// Package heatmap draws tree identity matrices.
package heatmap

import (
	"errors"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// log is the global logging variable.
var log = logging.MustGetLogger("heatmap")

// cellSize is the image size per matrix cell; the image is never
// smaller than minSize or larger than maxSize.
const (
	cellSize = 0.25 * vg.Inch
	minSize  = 4 * vg.Inch
	maxSize  = 20 * vg.Inch
)

// grid adapts an identity matrix to plotter.GridXYZ. Columns are
// trees of the second collection, rows trees of the first one.
type grid struct {
	m *mat64.Dense
}

func (g grid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Min and Max fix the color range, so that matrices with only one
// value are drawn.
func (g grid) Min() float64 { return 0 }
func (g grid) Max() float64 { return 1 }

// size returns the image side for n cells.
func size(n int) vg.Length {
	s := vg.Length(n) * cellSize
	if s < minSize {
		return minSize
	}
	if s > maxSize {
		return maxSize
	}
	return s
}

// Save draws the matrix to a file, the format is chosen by the file
// extension (png, svg, pdf, ...).
func Save(m *mat64.Dense, filename string) error {
	if m == nil {
		return errors.New("empty identity matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return errors.New("empty identity matrix")
	}

	p := plot.New()
	p.Title.Text = "Tree identity"
	p.X.Label.Text = "tree 2"
	p.Y.Label.Text = "tree 1"

	h := plotter.NewHeatMap(grid{m}, palette.Heat(2, 1))
	p.Add(h)

	log.Debugf("Saving %dx%d identity matrix to %s", r, c, filename)
	return p.Save(size(c), size(r), filename)
}
