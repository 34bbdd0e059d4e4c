package tree

import (
	"strings"

	"github.com/matzehuels/terraces/pkg/errors"
)

// Parsed is a tree as read from Newick text: arbitrary arity, labels as
// written. Inner node labels are kept but play no role in the analysis.
type Parsed struct {
	Label    string
	Children []*Parsed
}

// IsLeaf reports whether p has no children.
func (p *Parsed) IsLeaf() bool { return len(p.Children) == 0 }

// LeafLabels returns the labels of all leaves in input order.
func (p *Parsed) LeafLabels() []string {
	var out []string
	var walk func(*Parsed)
	walk = func(p *Parsed) {
		if p.IsLeaf() {
			out = append(out, p.Label)
			return
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	walk(p)
	return out
}

// ParseNewick reads one Newick tree. Branch lengths (":0.12"), bracketed
// comments and inner node labels are accepted and discarded; single-quoted
// labels may contain structural characters. The terminating ";" is required.
func ParseNewick(s string) (*Parsed, error) {
	p := &newickParser{src: s}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skip()
	if !p.eat(';') {
		return nil, p.errorf("expected ';'")
	}
	p.skip()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input after ';'")
	}
	return root, nil
}

type newickParser struct {
	src string
	pos int
}

func (p *newickParser) subtree() (*Parsed, error) {
	p.skip()
	n := &Parsed{}
	if p.eat('(') {
		for {
			child, err := p.subtree()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			p.skip()
			if p.eat(',') {
				continue
			}
			if p.eat(')') {
				break
			}
			return nil, p.errorf("expected ',' or ')'")
		}
	}

	label, err := p.label()
	if err != nil {
		return nil, err
	}
	n.Label = label
	if n.IsLeaf() && label == "" {
		return nil, p.errorf("leaf without label")
	}

	p.skip()
	if p.eat(':') {
		p.skip()
		start := p.pos
		for p.pos < len(p.src) && strings.IndexByte("0123456789.eE+-", p.src[p.pos]) >= 0 {
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("expected branch length")
		}
	}
	return n, nil
}

func (p *newickParser) label() (string, error) {
	p.skip()
	if p.eat('\'') {
		var b strings.Builder
		for {
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated quoted label")
			}
			c := p.src[p.pos]
			p.pos++
			if c == '\'' {
				// Doubled quote is an escaped quote.
				if p.eat('\'') {
					b.WriteByte('\'')
					continue
				}
				return b.String(), nil
			}
			b.WriteByte(c)
		}
	}
	start := p.pos
	for p.pos < len(p.src) && !isNewickDelimiter(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

// skip advances past whitespace and bracketed comments.
func (p *newickParser) skip() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '[':
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *newickParser) eat(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *newickParser) errorf(msg string) error {
	return errors.New(errors.ErrCodeInvalidNewick, "%s at offset %d", msg, p.pos)
}

func isNewickDelimiter(c byte) bool {
	return strings.IndexByte("(),:;[ \t\n\r'", c) >= 0
}
