package diagram

import (
	"regexp"
	"strings"
)

// headerKeyword finds a diagram-type keyword as a whole word anywhere in text
var headerKeyword = regexp.MustCompile(`(?i)\b(?:flowchart|graph|sequenceDiagram|classDiagram|stateDiagram(?:-v2)?|erDiagram|gantt|pie|journey|mindmap|gitGraph|timeline|quadrantChart|requirementDiagram)\b`)

// extractStrategy returns the candidate blocks it finds, in order of appearance
type extractStrategy struct {
	name string
	find func(text string) []string
}

var extractStrategies = []extractStrategy{
	{name: "tagged fence", find: fencesTagged("mermaid")},
	{name: "untagged fence", find: fencesTagged("")},
	{name: "bare header block", find: findBareHeaderBlock},
}

// fence is one closed ``` block. Tag is the lowercased first word after the
// opening backticks, empty for a bare fence.
type fence struct {
	tag  string
	body string
}

func fencesTagged(tag string) func(string) []string {
	return func(text string) []string {
		var blocks []string
		for _, f := range findFences(text) {
			if f.tag == tag {
				blocks = append(blocks, f.body)
			}
		}
		return blocks
	}
}

// findFences pairs fence lines in order, so a closing fence is never read as
// the opening of the next block. A fence left open at the end is discarded.
func findFences(text string) []fence {
	var (
		fences []fence
		body   []string
		tag    string
		open   bool
	)
	closeFence := func() {
		content := strings.Join(body, "\n")
		fences = append(fences, fence{tag: tag, body: strings.TrimSuffix(content, "\r")})
		open = false
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if !open {
			if rest, ok := strings.CutPrefix(trimmed, "```"); ok {
				tag = ""
				if fields := strings.Fields(rest); len(fields) > 0 {
					tag = strings.ToLower(fields[0])
				}
				body = nil
				open = true
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			closeFence()
			continue
		}
		// closing backticks glued to the last diagram line
		if before, ok := strings.CutSuffix(strings.TrimRight(line, " \t\r"), "```"); ok {
			body = append(body, before)
			closeFence()
			continue
		}
		body = append(body, line)
	}

	return fences
}

// findBareHeaderBlock takes every block that starts with a header line and
// runs to a blank line, a fence, or the end of the text
func findBareHeaderBlock(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	for i := 0; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 || !diagramKeywords[strings.ToLower(strings.TrimRight(fields[0], ";"))] {
			continue
		}
		end := i + 1
		for end < len(lines) {
			trimmed := strings.TrimSpace(lines[end])
			if trimmed == "" || strings.HasPrefix(trimmed, "```") {
				break
			}
			end++
		}
		blocks = append(blocks, strings.Join(lines[i:end], "\n"))
		i = end
	}
	return blocks
}

// Extract pulls the most plausible diagram block out of free-form generator
// output. When nothing looks like a diagram the text is returned unchanged so
// the normalizer can still try to repair it.
func Extract(text string) string {
	for _, strategy := range extractStrategies {
		for _, block := range strategy.find(text) {
			if headerKeyword.MatchString(block) {
				return block
			}
		}
	}

	if block, ok := scanForDiagram(text); ok {
		return block
	}

	return text
}

// scanForDiagram starts collecting at the first line mentioning a diagram
// keyword and stops at two consecutive blank lines once three lines are held
func scanForDiagram(text string) (string, bool) {
	var collected []string
	blanks := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if collected == nil {
			if headerKeyword.MatchString(trimmed) {
				collected = append(collected, trimmed)
			}
			continue
		}

		if trimmed == "" {
			blanks++
			if blanks >= 2 && len(collected) >= 3 {
				break
			}
			continue
		}
		blanks = 0
		collected = append(collected, trimmed)
	}

	if len(collected) == 0 {
		return "", false
	}
	return strings.Join(collected, "\n"), true
}
