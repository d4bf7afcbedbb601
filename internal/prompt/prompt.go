// Package prompt assembles the single text blob sent to the generative
// model. Build is a pure function: no I/O, deterministic for identical
// inputs, and a section whose backing data is empty is omitted entirely
// rather than emitted as a bare header.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkarlsen/benchcrawl/internal/learning"
	"github.com/mkarlsen/benchcrawl/internal/scrape"
	"github.com/mkarlsen/benchcrawl/internal/signals"
)

const (
	// snippetLimit bounds the website snippet shown per worked example.
	snippetLimit = 150
	// navLinkScan is how many raw nav links are considered for relevance.
	navLinkScan = 30
	// navLinkCap is the most links ever emitted into the prompt.
	navLinkCap = 15
	// elementCap bounds the detected-element notes in the signals block.
	elementCap = 5
)

// relevanceKeywords select which navigation links are worth showing the
// model. Case-insensitive substring match.
var relevanceKeywords = []string{
	"r&d", "research", "product", "service", "about",
	"shop", "store", "career", "contact", "solution",
	"manufacture", "develop", "wholesale", "retail",
}

// Input carries everything the composer may weave into the prompt.
type Input struct {
	Website          scrape.WebsiteSignals
	Instructions     string
	VisualCheck      string
	TrainingExamples []learning.TrainingExample
	MistakePatterns  []learning.MistakePattern
	UISignals        *signals.UISignals
}

// Build assembles the model prompt in fixed section order: role, mission,
// visual check, worked examples, mistake patterns, signals, page text,
// output directive.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString("ROLE:\n")
	b.WriteString("You are an expert business analyst specializing in company benchmarking studies.\n\n")

	b.WriteString("THE MISSION (Instructions for this benchmark):\n")
	b.WriteString(in.Instructions)
	b.WriteString("\n")

	b.WriteString(visualSection(in.VisualCheck, in.UISignals))
	b.WriteString(examplesSection(in.TrainingExamples))
	b.WriteString(mistakesSection(in.MistakePatterns))

	b.WriteString("\n--------------------------------------------------\n\n")
	b.WriteString("CURRENT TASK:\n")
	b.WriteString("Analyze the website content below and strictly follow 'The Mission'.\n")

	if s := signalsSection(in.Website, in.UISignals); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
		b.WriteString("\n")
	}

	b.WriteString("\nWEBSITE TEXT CONTENT:\n")
	b.WriteString(in.Website.TextContent)
	b.WriteString("\n\nOUTPUT:\n")
	b.WriteString("Provide your analysis following the mission instructions exactly.\n")

	return b.String()
}

func visualSection(visualCheck string, ui *signals.UISignals) string {
	if strings.TrimSpace(visualCheck) == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nVISUAL CHECK REQUESTED:\n")
	b.WriteString(visualCheck)
	b.WriteString("\n")
	if ui != nil && ui.CustomCheckResult != "" {
		fmt.Fprintf(&b, "Detection Result: %s\n", ui.CustomCheckResult)
	}
	return b.String()
}

func examplesSection(examples []learning.TrainingExample) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nREFERENCE EXAMPLES (Match this writing style and analysis depth):\n")
	for i, ex := range examples {
		n := i + 1
		fmt.Fprintf(&b, "\n--- Example %d ---\n", n)
		fmt.Fprintf(&b, "Instructions Used: %s\n", ex.BenchmarkContext)
		fmt.Fprintf(&b, "Website Snippet: %q...\n", truncate(ex.HTMLSnippet, snippetLimit))
		fmt.Fprintf(&b, "Correct Output: %s\n", ex.HumanDescription)
		fmt.Fprintf(&b, "--- End Example %d ---\n", n)
	}
	return b.String()
}

func mistakesSection(patterns []learning.MistakePattern) string {
	if len(patterns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nCOMMON MISTAKES TO AVOID:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "\n- Pattern: %q\n", p.Pattern)
		fmt.Fprintf(&b, "  WRONG conclusion: %s\n", p.WrongConclusion)
		fmt.Fprintf(&b, "  CORRECT conclusion: %s\n", p.CorrectConclusion)
	}
	return b.String()
}

// signalsSection renders nav links, meta description and UI indicators.
// Each line appears only when its underlying condition holds.
func signalsSection(site scrape.WebsiteSignals, ui *signals.UISignals) string {
	var lines []string

	if links := relevantNavLinks(site.NavLinks); len(links) > 0 {
		lines = append(lines, "NAVIGATION LINKS DETECTED: "+strings.Join(links, ", "))
	}
	if site.MetaDescription != "" {
		lines = append(lines, "META DESCRIPTION: "+site.MetaDescription)
	}
	if ui != nil {
		if ui.HasShoppingCart {
			lines = append(lines, "RETAIL INDICATOR: Shopping cart/e-commerce elements detected")
		}
		if ui.HasJobBoard {
			lines = append(lines, "CAREERS SECTION: Job board/hiring page detected")
		}
		if len(ui.DetectedElements) > 0 {
			elems := ui.DetectedElements
			if len(elems) > elementCap {
				elems = elems[:elementCap]
			}
			lines = append(lines, "UI ELEMENTS: "+strings.Join(elems, ", "))
		}
	}

	return strings.Join(lines, "\n")
}

// relevantNavLinks filters the first navLinkScan links down to those
// containing a relevance keyword, capped at navLinkCap.
func relevantNavLinks(links []string) []string {
	if len(links) > navLinkScan {
		links = links[:navLinkScan]
	}
	var out []string
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, kw := range relevanceKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, link)
				break
			}
		}
		if len(out) == navLinkCap {
			break
		}
	}
	return out
}

// truncate keeps the first n characters, never splitting a rune, so the
// prompt stays valid UTF-8 around the cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
