package diagram

import (
	"strings"
)

// Normalize rewrites extractor output into the canonical form: one header
// line followed by indented node and edge lines, each in "id[label]" shape
// joined by the canonical arrow. Lines that fit neither shape are dropped.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(text string) string {
	lines := classifyAll(text)

	// an edge side written as a bare id reuses the label declared elsewhere
	declared := make(map[string]string)
	remember := func(ref NodeRef) {
		if _, ok := declared[ref.ID]; !ok && ref.HasLabel {
			declared[ref.ID] = ref.Label
		}
	}
	for _, line := range lines {
		for _, ref := range line.Refs {
			remember(ref)
		}
		for _, group := range line.Chain {
			for _, ref := range group {
				remember(ref)
			}
		}
	}
	resolve := func(ref NodeRef) NodeRef {
		if !ref.HasLabel {
			if label, ok := declared[ref.ID]; ok {
				ref.Label = label
			}
		}
		return ref
	}

	header := ""
	var body []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			body = append(body, Indent+s)
		}
	}

	for _, line := range lines {
		switch line.Kind {
		case Header:
			if header == "" {
				header = "flowchart " + line.Direction
			}
		case Node:
			add(renderRef(line.Refs[0]))
		case Edge:
			for _, pair := range line.Pairs() {
				add(renderRef(resolve(pair[0])) + " " + CanonicalArrow + " " + renderRef(resolve(pair[1])))
			}
		}
	}

	if len(body) == 0 {
		return Placeholder
	}
	if header == "" {
		header = CanonicalHeader
	}

	return header + "\n" + strings.Join(body, "\n")
}

func classifyAll(text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		if line := Classify(r); line.Kind != Unrecognized {
			lines = append(lines, line)
		}
	}
	return lines
}
