package compare

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/treediff/tree"
)

const (
	treeA = "((a:1,b:1):1,(c:1,d:1):1);"
	treeB = "((a:1,c:1):1,(b:1,d:1):1);"
	treeC = "(a:1,(b:1,(c:1,d:1):1):1);"
)

// writeTrees writes a newick file to a temporary directory.
func writeTrees(tst *testing.T, name string, trees ...string) string {
	fn := filepath.Join(tst.TempDir(), name)
	if err := os.WriteFile(fn, []byte(strings.Join(trees, "\n")+"\n"), 0644); err != nil {
		tst.Fatal("Error writing trees", err)
	}
	return fn
}

// testLogger returns a logger writing messages to buf.
func testLogger(buf *bytes.Buffer, level logging.Level) *logging.Logger {
	logger := logging.MustGetLogger("compare_test")
	backend := logging.AddModuleLevel(logging.NewLogBackend(buf, "", 0))
	backend.SetLevel(level, "")
	logger.SetBackend(backend)
	return logger
}

func TestExample(tst *testing.T) {
	fn1 := writeTrees(tst, "t1.nwk", treeA, treeB)
	fn2 := writeTrees(tst, "t2.nwk", treeA)

	var out, diag bytes.Buffer
	c := New(Config{Filename1: fn1, Filename2: fn2}, &out, testLogger(&diag, logging.INFO))
	summary, err := c.Run()
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}

	expected := "=\t0\t0\n!=\t1\t0\n# n1=2, n2=1, ntotal=2, nsame=1, ndiff=1\n"
	if out.String() != expected {
		tst.Errorf("Wrong output:\n%s", out.String())
	}
	if summary.N1 != 2 || summary.N2 != 1 || summary.NTotal != 2 ||
		summary.NSame != 1 || summary.NDiff != 1 {
		tst.Error("Wrong summary:", summary)
	}
	if summary.Filename1 != fn1 || summary.Filename2 != fn2 {
		tst.Error("Wrong file names in summary:", summary.Filename1, summary.Filename2)
	}

	expectedDiag := fmt.Sprintf("# read 2 trees from %s.\n# read 1 trees from %s.\n", fn1, fn2)
	if diag.String() != expectedDiag {
		tst.Errorf("Wrong diagnostic output:\n%s", diag.String())
	}
}

func TestQuiet(tst *testing.T) {
	fn := writeTrees(tst, "t.nwk", treeA)

	var out, diag bytes.Buffer
	c := New(Config{Filename1: fn, Filename2: fn}, &out, testLogger(&diag, logging.NOTICE))
	if _, err := c.Run(); err != nil {
		tst.Fatal("Error comparing trees", err)
	}
	if diag.Len() != 0 {
		tst.Error("Unexpected diagnostic output:", diag.String())
	}
}

func TestSelf(tst *testing.T) {
	fn := writeTrees(tst, "t.nwk", treeA, treeB, treeC, treeA)

	var out, diag bytes.Buffer
	c := New(Config{Filename1: fn, Filename2: fn}, &out, testLogger(&diag, logging.NOTICE))
	summary, err := c.Run()
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4*4+1 {
		tst.Fatal("Wrong number of lines:", len(lines))
	}
	i := 0
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			fields := strings.Split(lines[i], "\t")
			if len(fields) != 3 || fields[1] != fmt.Sprint(x) || fields[2] != fmt.Sprint(y) {
				tst.Error("Wrong line order:", lines[i])
			}
			if x == y && fields[0] != Same {
				tst.Error("Tree is not identical to itself:", lines[i])
			}
			i++
		}
	}
	// the diagonal and the (0, 3), (3, 0) pairs
	if summary.NSame != 6 || summary.NTotal != 16 || summary.NSame+summary.NDiff != summary.NTotal {
		tst.Error("Wrong summary:", summary)
	}
	if !strings.HasPrefix(lines[16], "# ") {
		tst.Error("Last line is not the summary:", lines[16])
	}
}

func TestOutgroup(tst *testing.T) {
	fn1 := writeTrees(tst, "t1.nwk", treeA)
	fn2 := writeTrees(tst, "t2.nwk", treeC)

	var out, diag bytes.Buffer
	c := New(Config{Filename1: fn1, Filename2: fn2}, &out, testLogger(&diag, logging.NOTICE))
	summary, err := c.Run()
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}
	if summary.NSame != 0 {
		tst.Error("Trees are identical without rooting")
	}

	out.Reset()
	c = New(Config{Filename1: fn1, Filename2: fn2, Outgroup: "a"}, &out, testLogger(&diag, logging.NOTICE))
	summary, err = c.Run()
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}
	if summary.NSame != 1 || summary.Outgroup != "a" {
		tst.Error("Trees differ after rooting:", summary)
	}
	if out.String() != "=\t0\t0\n# n1=1, n2=1, ntotal=1, nsame=1, ndiff=0\n" {
		tst.Errorf("Wrong output:\n%s", out.String())
	}
}

func TestErrors(tst *testing.T) {
	good := writeTrees(tst, "good.nwk", treeA, treeB)
	bad := writeTrees(tst, "bad.nwk", treeA, "((a,b),c")
	noOutgroup := writeTrees(tst, "no_outgroup.nwk", treeA, "((b,c),d);")

	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"no files", Config{}, ErrConfig},
		{"one file", Config{Filename1: good}, ErrConfig},
		{"missing outgroup", Config{Filename1: good, Filename2: good, Outgroup: "x"}, tree.ErrOutgroupNotFound},
		{"outgroup missing in second collection", Config{Filename1: good, Filename2: noOutgroup, Outgroup: "a"}, tree.ErrOutgroupNotFound},
		{"outgroup missing in first collection", Config{Filename1: noOutgroup, Filename2: good, Outgroup: "a"}, tree.ErrOutgroupNotFound},
		{"missing file", Config{Filename1: good, Filename2: filepath.Join(tst.TempDir(), "none.nwk")}, os.ErrNotExist},
		{"parse error", Config{Filename1: bad, Filename2: good}, nil},
	}
	for _, test := range tests {
		var out, diag bytes.Buffer
		summary, err := New(test.cfg, &out, testLogger(&diag, logging.DEBUG)).Run()
		if err == nil || summary != nil {
			tst.Errorf("%s: expected an error", test.name)
			continue
		}
		if test.err != nil && !errors.Is(err, test.err) {
			tst.Errorf("%s: unexpected error %v", test.name, err)
		}
		if out.Len() != 0 {
			tst.Errorf("%s: unexpected output %q", test.name, out.String())
		}
	}
}

func TestReroot(tst *testing.T) {
	trees, err := tree.NewReader(strings.NewReader(treeA + treeC)).ReadAll()
	if err != nil {
		tst.Fatal("Error parsing trees", err)
	}
	before := trees[0].String()

	rooted, err := Reroot(trees, "a")
	if err != nil {
		tst.Fatal("Error rooting trees", err)
	}
	if trees[0].String() != before {
		tst.Error("Input tree modified by rooting:", trees[0])
	}
	if trees[0].IsIdentical(trees[1]) {
		tst.Error("Input trees are identical before rooting")
	}
	if !rooted[0].IsIdentical(rooted[1]) {
		tst.Error("Trees differ after rooting:", rooted[0].Canonical(), rooted[1].Canonical())
	}

	if _, err := Reroot(trees, "x"); !errors.Is(err, tree.ErrOutgroupNotFound) {
		tst.Error("Expected missing outgroup error, got", err)
	}
}

func TestMatrix(tst *testing.T) {
	trees, err := tree.NewReader(strings.NewReader(treeA + treeB + treeC)).ReadAll()
	if err != nil {
		tst.Fatal("Error parsing trees", err)
	}

	var out bytes.Buffer
	c := New(Config{Matrix: true}, &out, nil)
	summary, err := c.Compare(trees, trees[:2])
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}
	r, cols := summary.Matrix.Dims()
	if r != 3 || cols != 2 {
		tst.Fatal("Wrong matrix dimensions:", r, cols)
	}

	var buf bytes.Buffer
	if err := WriteMatrix(&buf, summary.Matrix); err != nil {
		tst.Fatal("Error writing matrix", err)
	}
	if buf.String() != "1\t0\n0\t1\n0\t0\n" {
		tst.Errorf("Wrong matrix:\n%s", buf.String())
	}
}

func TestEmpty(tst *testing.T) {
	var out bytes.Buffer
	c := New(Config{Matrix: true}, &out, nil)
	summary, err := c.Compare(nil, nil)
	if err != nil {
		tst.Fatal("Error comparing trees", err)
	}
	if summary.Matrix != nil {
		tst.Error("Matrix allocated for empty collections")
	}
	if out.String() != "# n1=0, n2=0, ntotal=0, nsame=0, ndiff=0\n" {
		tst.Errorf("Wrong output:\n%s", out.String())
	}
}
