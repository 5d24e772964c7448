// Package compare compares two collections of trees pairwise and
// reports which pairs are identical.
package compare

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/treediff/tree"
)

// log is the global logging variable.
var log = logging.MustGetLogger("compare")

// ErrConfig is returned when one of the tree files is not specified.
var ErrConfig = errors.New("please specify two trees")

// Equality codes.
const (
	Same      = "="
	Different = "!="
)

// Config stores the comparison parameters.
type Config struct {
	// Filename1 and Filename2 are the tree collection files.
	Filename1 string
	Filename2 string
	// Outgroup is the leaf name to root all the trees with, if set.
	Outgroup string
	// Matrix requests the identity matrix in the summary.
	Matrix bool
}

// Validate checks that both tree files are set.
func (c Config) Validate() error {
	if c.Filename1 == "" || c.Filename2 == "" {
		return ErrConfig
	}
	return nil
}

// Result is the outcome of one comparison.
type Result struct {
	Code string
	X, Y int
}

func (r Result) String() string {
	return fmt.Sprintf("%s\t%d\t%d", r.Code, r.X, r.Y)
}

// Summary stores the comparison counts.
type Summary struct {
	Filename1 string `json:"filename1"`
	Filename2 string `json:"filename2"`
	Outgroup  string `json:"outgroup,omitempty"`
	// N1 and N2 are the collection sizes.
	N1     int `json:"n1"`
	N2     int `json:"n2"`
	NTotal int `json:"ntotal"`
	NSame  int `json:"nsame"`
	NDiff  int `json:"ndiff"`
	// Matrix has 1 for identical pairs and 0 otherwise. It is only
	// computed if requested and both collections are non-empty.
	Matrix *mat64.Dense `json:"-"`
}

func (s *Summary) String() string {
	return fmt.Sprintf("# n1=%d, n2=%d, ntotal=%d, nsame=%d, ndiff=%d",
		s.N1, s.N2, s.NTotal, s.NSame, s.NDiff)
}

// Comparator runs a comparison writing results to out and
// diagnostics to its logger.
type Comparator struct {
	Config
	out io.Writer
	log *logging.Logger
}

// New creates a new Comparator. If logger is nil, the package logger
// is used.
func New(cfg Config, out io.Writer, logger *logging.Logger) *Comparator {
	if logger == nil {
		logger = log
	}
	return &Comparator{
		Config: cfg,
		out:    out,
		log:    logger,
	}
}

// LoadTrees reads all the trees from a file.
func LoadTrees(filename string) ([]*tree.Tree, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trees, err := tree.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return trees, nil
}

// Reroot returns copies of the trees rooted with the outgroup. The
// input trees are not modified.
func Reroot(trees []*tree.Tree, outgroup string) ([]*tree.Tree, error) {
	rooted := make([]*tree.Tree, len(trees))
	for i, t := range trees {
		rooted[i] = t.Copy()
		if err := rooted[i].RootWithOutgroup(outgroup); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return rooted, nil
}

func (c *Comparator) load(filename string) ([]*tree.Tree, error) {
	trees, err := LoadTrees(filename)
	if err != nil {
		return nil, err
	}
	c.log.Infof("# read %d trees from %s.", len(trees), filename)
	if c.log.IsEnabledFor(logging.DEBUG) {
		for i, t := range trees {
			c.log.Debugf("%s[%d]: brtree=%s", filename, i, t.BrString())
		}
	}
	return trees, nil
}

// Run reads both collections, roots them if an outgroup is set and
// compares every pair. Nothing is written to the output before all the
// trees are read and rooted.
func (c *Comparator) Run() (*Summary, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	trees1, err := c.load(c.Filename1)
	if err != nil {
		return nil, err
	}
	trees2, err := c.load(c.Filename2)
	if err != nil {
		return nil, err
	}

	if c.Outgroup != "" {
		c.log.Infof("Rooting trees with outgroup %s", c.Outgroup)
		if trees1, err = Reroot(trees1, c.Outgroup); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Filename1, err)
		}
		if trees2, err = Reroot(trees2, c.Outgroup); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Filename2, err)
		}
	}

	summary, err := c.Compare(trees1, trees2)
	if err != nil {
		return nil, err
	}
	summary.Filename1 = c.Filename1
	summary.Filename2 = c.Filename2
	summary.Outgroup = c.Outgroup
	return summary, nil
}

// Compare compares every tree of trees1 (outer loop) with every tree
// of trees2 (inner loop), writes one line per pair and the summary
// line.
func (c *Comparator) Compare(trees1, trees2 []*tree.Tree) (*Summary, error) {
	summary := &Summary{N1: len(trees1), N2: len(trees2)}
	if c.Matrix && summary.N1 > 0 && summary.N2 > 0 {
		summary.Matrix = mat64.NewDense(summary.N1, summary.N2, nil)
	}

	debug := c.log.IsEnabledFor(logging.DEBUG)
	for x, t1 := range trees1 {
		for y, t2 := range trees2 {
			if debug {
				c.log.Debugf("tree1[%d]: %s", x, t1.ClassString())
				c.log.Debugf("tree2[%d]: %s", y, t2.ClassString())
			}
			res := Result{Code: Different, X: x, Y: y}
			if t1.IsIdentical(t2) {
				res.Code = Same
				summary.NSame++
				if summary.Matrix != nil {
					summary.Matrix.Set(x, y, 1)
				}
			} else {
				summary.NDiff++
			}
			summary.NTotal++
			if _, err := fmt.Fprintln(c.out, res); err != nil {
				return nil, err
			}
		}
	}

	if _, err := fmt.Fprintln(c.out, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// WriteMatrix writes the identity matrix as tab-separated rows.
func WriteMatrix(w io.Writer, m *mat64.Dense) error {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sep := "\t"
			if j == c-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "%d%s", int(m.At(i, j)), sep); err != nil {
				return err
			}
		}
	}
	return nil
}
