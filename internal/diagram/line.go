package diagram

import (
	"strings"
)

const (
	CanonicalHeader = "flowchart TD"
	CanonicalArrow  = "-->"
	Indent          = "    "

	// Placeholder replaces any diagram that ends up without a single node
	Placeholder = CanonicalHeader + "\n" + Indent + "A[Repository]"
)

// Kind tags a diagram line once so later stages never re-derive its shape
type Kind int

const (
	Unrecognized Kind = iota
	Header
	Node
	Edge
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Node:
		return "node"
	case Edge:
		return "edge"
	default:
		return "unrecognized"
	}
}

// NodeRef is one node as written on a line. HasLabel is false when the
// source gave a bare identifier and Label only echoes the raw text.
type NodeRef struct {
	ID       string
	Label    string
	HasLabel bool
}

// Line is a classified diagram line.
//   - Header lines carry Direction.
//   - Node lines carry exactly one entry in Refs.
//   - Edge lines carry Chain: consecutive groups joined by arrows, where a
//     group holds more than one ref when the source used "&".
type Line struct {
	Kind      Kind
	Direction string
	Refs      []NodeRef
	Chain     [][]NodeRef
}

// Pairs expands an edge chain into source/target pairs in source order
func (l Line) Pairs() [][2]NodeRef {
	var pairs [][2]NodeRef
	for i := 0; i+1 < len(l.Chain); i++ {
		for _, from := range l.Chain[i] {
			for _, to := range l.Chain[i+1] {
				pairs = append(pairs, [2]NodeRef{from, to})
			}
		}
	}
	return pairs
}

// diagramKeywords are the Mermaid diagram types recognized as headers,
// lowercased. Only flowchart and graph keep their direction.
var diagramKeywords = map[string]bool{
	"flowchart":          true,
	"graph":              true,
	"sequencediagram":    true,
	"classdiagram":       true,
	"statediagram":       true,
	"statediagram-v2":    true,
	"erdiagram":          true,
	"gantt":              true,
	"pie":                true,
	"journey":            true,
	"mindmap":            true,
	"gitgraph":           true,
	"timeline":           true,
	"quadrantchart":      true,
	"requirementdiagram": true,
	"c4context":          true,
	"sankey-beta":        true,
	"xychart-beta":       true,
	"block-beta":         true,
}

var directions = map[string]bool{"TD": true, "TB": true, "BT": true, "LR": true, "RL": true}

// statements that are valid Mermaid but carry no node of their own
var skippedStatements = map[string]bool{
	"subgraph":    true,
	"end":         true,
	"direction":   true,
	"classdef":    true,
	"class":       true,
	"style":       true,
	"linkstyle":   true,
	"click":       true,
	"participant": true,
	"actor":       true,
	"note":        true,
	"loop":        true,
	"alt":         true,
	"else":        true,
	"opt":         true,
	"par":         true,
	"rect":        true,
	"activate":    true,
	"deactivate":  true,
	"title":       true,
	"acctitle":    true,
	"accdescr":    true,
}

// Classify parses one raw line into the tagged grammar
func Classify(raw string) Line {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(strings.TrimRight(text, ";"))
	if text == "" || strings.HasPrefix(text, "%%") {
		return Line{Kind: Unrecognized}
	}

	fields := strings.Fields(text)
	first := strings.ToLower(fields[0])
	if skippedStatements[first] {
		return Line{Kind: Unrecognized}
	}

	segments, arrows := splitArrows(text)
	if len(arrows) > 0 {
		return parseEdge(segments, arrows)
	}

	if diagramKeywords[first] {
		direction := "TD"
		if (first == "flowchart" || first == "graph") && len(fields) > 1 {
			if d := strings.ToUpper(fields[1]); directions[d] {
				direction = d
			}
		}
		return Line{Kind: Header, Direction: direction}
	}

	ref, ok := parseDeclaration(text)
	if !ok {
		return Line{Kind: Unrecognized}
	}
	return Line{Kind: Node, Refs: []NodeRef{ref}}
}

func parseEdge(segments []string, arrows []arrowToken) Line {
	// "A -- text --> B" writes the link text between an open token and the arrow
	var kept []string
	for i := 0; i < len(segments); i++ {
		kept = append(kept, segments[i])
		if i < len(arrows) && arrows[i].open && i+1 < len(arrows) {
			i++
		}
	}

	chain := make([][]NodeRef, 0, len(kept))
	for _, segment := range kept {
		// sequence messages and class shorthands follow a top-level colon
		segment = cutTopLevel(segment, ':')

		var group []NodeRef
		for _, piece := range splitTopLevel(segment, '&') {
			ref, ok := parseRef(piece)
			if !ok {
				return Line{Kind: Unrecognized}
			}
			group = append(group, ref)
		}
		chain = append(chain, group)
	}

	return Line{Kind: Edge, Chain: chain}
}

// parseDeclaration accepts a standalone node. Unlike an edge side it needs
// some bracket: bare words on their own line are prose, not nodes.
func parseDeclaration(text string) (NodeRef, bool) {
	if !strings.ContainsAny(text, "[({") && !strings.HasSuffix(text, "]") {
		return NodeRef{}, false
	}
	return parseRef(text)
}

func parseRef(piece string) (NodeRef, bool) {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return NodeRef{}, false
	}

	var id, label string
	hasLabel := true

	if open := strings.IndexAny(piece, "[({"); open >= 0 {
		id = strings.TrimSpace(piece[:open])
		if strings.ContainsAny(id, " \t") {
			return NodeRef{}, false
		}
		label = cleanLabel(piece[open:])
	} else if strings.HasSuffix(piece, "]") {
		// opening bracket missing: "label]" or "id label]"
		inner := strings.TrimSpace(strings.TrimRight(piece, "])}"))
		if before, after, found := strings.Cut(inner, " "); found {
			id, label = before, cleanLabel(after)
		} else {
			label = cleanLabel(inner)
		}
	} else {
		label = cleanLabel(piece)
		id = label
		hasLabel = false
	}

	if id == "" {
		id = label
	}
	id = sanitizeID(id)
	if id == "" {
		return NodeRef{}, false
	}
	if label == "" {
		label = id
	}

	return NodeRef{ID: id, Label: label, HasLabel: hasLabel}, true
}

// cleanLabel drops every bracket and quote so a label renders inside exactly
// one bracket pair, and collapses runs of whitespace
func cleanLabel(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', '{', '}', '"':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeID(s string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
	// a lowercase "end" closes subgraphs and breaks flowchart rendering
	if id == "end" {
		id = "end_"
	}
	return id
}

func renderRef(ref NodeRef) string {
	return ref.ID + "[" + ref.Label + "]"
}

type arrowToken struct {
	// open marks a bare "--", "==" or "-." that starts link text
	open bool
}

// splitArrows splits text on link tokens that sit outside brackets and quotes
func splitArrows(s string) ([]string, []arrowToken) {
	var segments []string
	var arrows []arrowToken

	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			if end, open, ok := matchArrow(s, i); ok {
				segments = append(segments, s[start:i])
				arrows = append(arrows, arrowToken{open: open})
				i, start = end, end
				continue
			}
		}
		i++
	}

	return append(segments, s[start:]), arrows
}

// matchArrow reports whether a link token starts at i and where it ends,
// including any "|text|" label that follows it
func matchArrow(s string, i int) (end int, open bool, ok bool) {
	j := i
	if s[j] == '<' {
		j++
	}

	runStart := j
	for j < len(s) && strings.IndexByte("-=.~", s[j]) >= 0 {
		j++
	}
	run := s[runStart:j]

	head := j
	switch {
	case j < len(s) && s[j] == '>':
		j++
		if j < len(s) && s[j] == '>' {
			j++
		}
	case j < len(s) && s[j] == ')':
		j++
	case j < len(s) && (s[j] == 'x' || s[j] == 'o') && (j+1 == len(s) || s[j+1] == ' ' || s[j+1] == '|'):
		j++
	}
	hasHead := j > head

	switch {
	case run == "":
		return 0, false, false
	case len(run) == 1:
		if run != "-" || !hasHead {
			return 0, false, false
		}
	case strings.Trim(run, "~") == "":
		if len(run) < 3 {
			return 0, false, false
		}
	case !strings.ContainsAny(run, "-="):
		return 0, false, false
	}

	open = !hasHead && (run == "--" || run == "==" || run == "-.")

	// skip an inline "|label|"
	k := j
	for k < len(s) && s[k] == ' ' {
		k++
	}
	if k < len(s) && s[k] == '|' {
		if closing := strings.IndexByte(s[k+1:], '|'); closing >= 0 {
			j = k + 1 + closing + 1
		}
	}

	return j, open, true
}

// cutTopLevel returns s up to the first sep outside brackets and quotes
func cutTopLevel(s string, sep byte) string {
	parts := splitTopLevel(s, sep)
	return parts[0]
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
