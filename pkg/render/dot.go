package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/terraces/pkg/tree"
)

// Options configures diagram generation.
type Options struct {
	// LeftToRight lays the tree out horizontally (rankdir=LR).
	LeftToRight bool

	// Title is drawn above the diagram when set.
	Title string
}

// ToDOT returns a Graphviz DOT digraph of n. Leaf ids are shown through
// labels.
func ToDOT(n tree.Node, labels tree.Labels, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Terrace {\n")
	if opts.LeftToRight {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", opts.Title)
	}
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=14, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")

	w := &dotWriter{buf: &buf, labels: labels}
	w.node(n)

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf    *bytes.Buffer
	labels tree.Labels
	next   int
}

// node writes n and its subtree and returns the DOT id of n.
func (w *dotWriter) node(n tree.Node) string {
	id := fmt.Sprintf("n%d", w.next)
	w.next++

	switch n := n.(type) {
	case *tree.Leaf:
		fmt.Fprintf(w.buf, "  %s [label=%q, shape=box, style=\"filled,rounded\"];\n", id, w.labels.Label(n.ID))

	case *tree.Inner:
		fmt.Fprintf(w.buf, "  %s [label=\"\", shape=point, width=0.08];\n", id)
		w.edge(id, w.node(n.Left), false)
		w.edge(id, w.node(n.Right), false)

	case *tree.Unrooted:
		fmt.Fprintf(w.buf, "  %s [label=\"\", shape=circle, width=0.15, fillcolor=black];\n", id)
		w.edge(id, w.node(n.Root), false)
		w.edge(id, w.node(n.Left), false)
		w.edge(id, w.node(n.Right), false)

	case *tree.AllBinaryCombinations:
		names := make([]string, len(n.Leaves))
		for i, leaf := range n.Leaves {
			names[i] = w.labels.Label(leaf)
		}
		label := fmt.Sprintf("any binary tree on\n%s\n(%s trees)",
			strings.Join(names, ", "), tree.CountBinaryTrees(len(n.Leaves)))
		fmt.Fprintf(w.buf, "  %s [label=%q, shape=box, style=\"filled,dashed\", fillcolor=lightyellow];\n", id, label)

	case *tree.AllTreeCombinations:
		fmt.Fprintf(w.buf, "  %s [label=\"or\", shape=diamond, fillcolor=lightgrey];\n", id)
		for _, alt := range n.Alternatives {
			w.edge(id, w.node(alt), true)
		}

	default:
		panic(fmt.Sprintf("render: unknown node type %T", n))
	}
	return id
}

func (w *dotWriter) edge(from, to string, dashed bool) {
	if dashed {
		fmt.Fprintf(w.buf, "  %s -> %s [style=dashed];\n", from, to)
		return
	}
	fmt.Fprintf(w.buf, "  %s -> %s;\n", from, to)
}

// RenderSVG lays out a DOT graph with Graphviz and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one that
// scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
