package tree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Mode int

const (
	NORMAL Mode = iota
	LENGTH
	CLASS
)

func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', '#', ';', ',':
		return true
	}
	return false
}

// NewickSplit is a bufio.SplitFunc returning special characters as
// one-character tokens and labels as words. Single-quoted labels are
// returned with their quotes. Whitespace and [...] comments are
// skipped.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces and comments; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if r == '[' {
			end := bytes.IndexByte(data[start:], ']')
			if end < 0 {
				if atEOF {
					return 0, nil, errors.New("unterminated comment")
				}
				return start, nil, nil
			}
			width = end + 1
			continue
		}
		if r == '\'' {
			return quotedLabel(data, start, atEOF)
		}
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == start {
		return len(data), nil, nil
	}

	// Scan until space, special character, comment or quote.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) || r == '[' || r == '\'' {
			return i, data[start:i], nil
		}
	}
	// If we're at EOF, we have a final, non-empty, non-terminated word. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return start, nil, nil
}

// quotedLabel returns the single-quoted label starting at data[start].
// Two consecutive quotes inside the label stand for one quote.
func quotedLabel(data []byte, start int, atEOF bool) (advance int, token []byte, err error) {
	for i := start + 1; i < len(data); i++ {
		if data[i] != '\'' {
			continue
		}
		if i+1 == len(data) && !atEOF {
			// The next quote may escape this one.
			break
		}
		if i+1 < len(data) && data[i+1] == '\'' {
			i++
			continue
		}
		return i + 1, data[start : i+1], nil
	}
	if atEOF {
		return 0, nil, errors.New("unterminated quoted label")
	}
	return start, nil, nil
}

// unquote strips the quotes of a quoted label.
func unquote(label string) string {
	if len(label) < 2 || label[0] != '\'' {
		return label
	}
	return strings.Replace(label[1:len(label)-1], "''", "'", -1)
}

// Reader reads consecutive newick trees from a stream.
type Reader struct {
	scanner *bufio.Scanner
	// n is the number of trees started so far.
	n int
}

// NewReader returns a reader ready for reading trees from rd.
func NewReader(rd io.Reader) *Reader {
	scanner := bufio.NewScanner(rd)
	scanner.Split(NewickSplit)
	return &Reader{scanner: scanner}
}

// ReadAll returns all the trees of the input. The first error aborts
// reading and no trees are returned. The error is never io.EOF.
func (r *Reader) ReadAll() ([]*Tree, error) {
	trees := make([]*Tree, 0)
	for {
		t, err := r.ReadTree()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// ReadTree reads the next tree terminated by a semicolon. If only
// whitespace is left, it returns nil and io.EOF.
func (r *Reader) ReadTree() (*Tree, error) {
	var tree *Tree
	var node *Node
	mode := NORMAL

	for r.scanner.Scan() {
		text := r.scanner.Text()
		if tree == nil {
			r.n++
			node = NewNode(nil, 0)
			tree = &Tree{Node: node}
		}
		if mode != NORMAL && len(text) == 1 && IsSpecial(rune(text[0])) {
			return nil, r.errorf("missing value before '%s'", text)
		}
		switch text {
		case "(":
			subNode := NewNode(nil, 0)
			node.AddChild(subNode)
			node = subNode
		case ",":
			if node.Parent == nil {
				return nil, r.errorf("top level comma mismatch")
			}
			subNode := NewNode(nil, 0)
			node.Parent.AddChild(subNode)
			node = subNode
		case ")":
			if node.Parent == nil {
				return nil, r.errorf("brackets mismatch")
			}
			node = node.Parent
		case "#":
			mode = CLASS
		case ":":
			mode = LENGTH
		case ";":
			if node != tree.Node {
				return nil, r.errorf("brackets mismatch")
			}
			tree.renumber()
			log.Debugf("tree %d: %d nodes, %d leaves", r.n, tree.NNodes(), tree.NLeaves())
			return tree, nil
		default:
			switch mode {
			case LENGTH:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, r.errorf("invalid branch length %q", text)
				}
				node.BranchLength = l
			case CLASS:
				cl, err := strconv.ParseInt(text, 0, 0)
				if err != nil {
					return nil, r.errorf("invalid class %q", text)
				}
				node.Class = int(cl)
			default:
				if node.Name != "" {
					return nil, r.errorf("unexpected label %q after %q", text, node.Name)
				}
				node.Name = unquote(text)
			}
			mode = NORMAL
		}
	}

	if err := r.scanner.Err(); err != nil {
		if tree == nil {
			r.n++
		}
		return nil, r.errorf("%v", err)
	}
	if tree != nil {
		return nil, r.errorf("unexpected end of input, missing ';'")
	}
	return nil, io.EOF
}

func (r *Reader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("tree %d: %s", r.n, fmt.Sprintf(format, args...))
}

// ParseNewick reads a single tree.
func ParseNewick(rd io.Reader) (*Tree, error) {
	tree, err := NewReader(rd).ReadTree()
	if err == io.EOF {
		return nil, errors.New("no tree found")
	}
	return tree, err
}
