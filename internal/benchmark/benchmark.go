// Package benchmark derives a stable identity from benchmark instructions
// and loads the instructions file itself.
//
// The identity partitions learned training examples by task type: two runs
// with the same leading instruction words share a training file, so
// corrections made on one run improve the next.
package benchmark

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Fallback identity when no instruction word qualifies.
const GeneralIdentity = "general"

// maxTokens is how many leading instruction words are considered.
const maxTokens = 20

// identityTokens is how many significant words form the identity.
const identityTokens = 3

var stopWords = map[string]struct{}{
	"we": {}, "are": {}, "the": {}, "a": {}, "an": {}, "and": {}, "or": {},
	"for": {}, "of": {}, "to": {}, "in": {}, "on": {}, "is": {}, "at": {},
	"by": {}, "with": {}, "from": {}, "this": {}, "that": {},
	"please": {}, "write": {}, "describe": {}, "description": {}, "looking": {},
}

var leadingAlnum = regexp.MustCompile(`^[a-z0-9]+`)

// Identity derives the benchmark identity from instruction text.
//
// The first 20 whitespace-separated words are lowercased; words in the
// stop-word set or of length <= 2 are dropped; the first 3 survivors are
// trimmed to their leading alphanumeric run and joined with underscores.
// The result doubles as a file-name-safe key for the training store.
// Empty input or all-insignificant input yields "general".
func Identity(instructions string) string {
	words := strings.Fields(strings.ToLower(instructions))
	if len(words) > maxTokens {
		words = words[:maxTokens]
	}

	var keep []string
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		clean := leadingAlnum.FindString(w)
		if clean == "" {
			continue
		}
		keep = append(keep, clean)
		if len(keep) == identityTokens {
			break
		}
	}

	if len(keep) == 0 {
		return GeneralIdentity
	}
	return strings.Join(keep, "_")
}

// Instructions holds the parsed contents of the instructions file.
type Instructions struct {
	Mission     string // task text sent to the model verbatim
	VisualCheck string // optional "VISUAL_CHECK:" directive, empty if absent
}

var visualCheckRe = regexp.MustCompile(`(?im)^\s*VISUAL_CHECK:\s*(.+?)\s*$`)

// LoadInstructions reads the instructions file and splits out an optional
// VISUAL_CHECK directive line. A missing or empty file is a setup error:
// without a mission there is nothing to ask the model.
func LoadInstructions(path string) (*Instructions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instructions: %w", err)
	}
	ins := Parse(string(data))
	if ins.Mission == "" {
		return nil, fmt.Errorf("instructions file %s is empty", path)
	}
	return ins, nil
}

// Parse splits raw instructions text into mission and visual-check parts.
func Parse(content string) *Instructions {
	visualCheck := ""
	if m := visualCheckRe.FindStringSubmatch(content); m != nil {
		visualCheck = m[1]
		content = visualCheckRe.ReplaceAllString(content, "")
	}
	return &Instructions{
		Mission:     strings.TrimSpace(content),
		VisualCheck: visualCheck,
	}
}
