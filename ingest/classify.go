package ingest

import (
	"regexp"
	"strings"

	"github.com/poiesic/docgraph/core"
)

// qaPattern matches an explicit question marker followed by an answer
// marker, capturing question and answer text separately.
var qaPattern = regexp.MustCompile(`(?is)\b(?:Question|Q)\s*[:.]\s*(.+?)\s+(?:Answer|A)\s*[:.]\s*(.+)`)

// stepPattern matches ordered step markers at line starts.
var stepPattern = regexp.MustCompile(`(?mi)^\s*(?:\d+[.)]\s+|step\s+\d+\b)`)

// imperativeVerbs are leading verbs that mark instructional sentences.
var imperativeVerbs = map[string]bool{
	"add": true, "click": true, "configure": true, "connect": true,
	"create": true, "enable": true, "enter": true, "install": true,
	"navigate": true, "open": true, "press": true, "remove": true,
	"restart": true, "run": true, "select": true, "set": true,
	"start": true, "stop": true, "type": true, "visit": true,
}

// Classify determines the node type of a chunk by deterministic pattern
// checks. A chunk with an explicit question marker followed by an answer
// marker is qa, with question and answer text extracted separately; chunks
// with ordered step markers or leading imperative verbs are procedure;
// everything else is fact.
func Classify(text string) (core.NodeType, string, string) {
	if m := qaPattern.FindStringSubmatch(text); m != nil {
		return core.NodeTypeQA, strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if stepPattern.MatchString(text) || startsImperative(text) {
		return core.NodeTypeProcedure, "", ""
	}
	return core.NodeTypeFact, "", ""
}

// startsImperative reports whether any sentence in the text opens with a
// known imperative verb.
func startsImperative(text string) bool {
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '\n'
	}) {
		words := strings.Fields(sentence)
		if len(words) == 0 {
			continue
		}
		first := strings.ToLower(strings.Trim(words[0], ".,!?;:'\""))
		if imperativeVerbs[first] {
			return true
		}
	}
	return false
}
