// Package export renders learned networks and maze states to Graphviz DOT
// and SVG.
package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/physlearn/physlearn/pkg/dag"
	"github.com/physlearn/physlearn/pkg/maze"
)

// ToDOT converts a learned network to Graphviz DOT format. Variable names
// label the nodes; names[i] labels variable i. The resulting DOT string can
// be rendered with [RenderSVG].
func ToDOT(g *dag.DAG, names []string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph network {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=16];\n")
	buf.WriteString("\n")

	for v := 0; v < g.N(); v++ {
		fmt.Fprintf(&buf, "  %q;\n", name(names, v))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", name(names, e.From), name(names, e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// MazeDOT converts a maze state to an undirected DOT graph. Edge pen width
// scales with conductance; edges at or below the threshold are drawn dashed
// and grey so the active structure stands out.
func MazeDOT(m *maze.Maze, names []string, threshold float64) string {
	var buf bytes.Buffer
	buf.WriteString("graph maze {\n")
	buf.WriteString("  layout=circo;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, e := range m.Edges() {
		width := 0.5 + e.State.Conductance
		attrs := fmt.Sprintf("penwidth=%.2f", width)
		if e.State.Conductance <= threshold {
			attrs += ", style=dashed, color=grey"
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", name(names, e.I), name(names, e.J), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func name(names []string, v int) string {
	if v < len(names) {
		return names[v]
	}
	return strconv.Itoa(v)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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

// normalizeViewBox rewrites the root SVG tag so the image scales cleanly in
// browsers regardless of the absolute coordinates Graphviz emits.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
