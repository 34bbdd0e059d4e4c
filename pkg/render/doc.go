// Package render draws trees and compressed terraces as diagrams.
//
// [ToDOT] turns any [tree.Node] into Graphviz DOT source. Concrete nodes are
// drawn as a rooted diagram: species as rounded boxes, inner nodes as small
// points, and the pseudoroot of an unrooted tree as a filled circle. The
// symbolic nodes of a compressed terrace get their own shapes:
//
//   - AllBinaryCombinations: a dashed box listing the leaves; every binary
//     tree over them is allowed
//   - AllTreeCombinations: a diamond with dashed edges to the alternatives
//
// [RenderSVG] lays out DOT in-process with [github.com/goccy/go-graphviz].
// [ToPDF] and [ToPNG] convert SVG with the external rsvg-convert tool.
//
//	dot := render.ToDOT(t, labels, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(svg, 2.0)
package render
