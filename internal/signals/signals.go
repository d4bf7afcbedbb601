// Package signals derives UI signals from a parsed page. Detection is a
// heuristic text/structure matcher over class names, ids and link
// targets, not visual analysis.
package signals

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UISignals holds the structural cues detected on a page. The zero value
// (nothing detected) is a valid result; extraction never fails.
type UISignals struct {
	HasShoppingCart   bool
	HasJobBoard       bool
	DetectedElements  []string
	CustomCheckResult string
}

// Ordered: the first matching pattern wins and stops the scan.
var cartPatterns = []string{
	"cart", "basket", "shopping-cart", "shopping_cart",
	"add-to-cart", "addtocart", "buy-now", "checkout",
	"shop", "store", "e-commerce", "ecommerce",
}

var jobPatterns = []string{
	"careers", "jobs", "vacancies", "hiring", "join-us", "join-our-team",
}

// Extract scans the document for shopping-cart and job-board indicators
// and, when a visual-check directive is given, runs the custom check
// interpreter. Always returns a well-formed value.
func Extract(doc *goquery.Document, visualCheck string) UISignals {
	var sig UISignals
	if doc == nil {
		return sig
	}

	detectShoppingCart(doc, &sig)
	detectJobBoard(doc, &sig)

	if strings.TrimSpace(visualCheck) != "" {
		sig.CustomCheckResult = customCheck(doc, visualCheck)
	}

	return sig
}

func detectShoppingCart(doc *goquery.Document, sig *UISignals) {
	for _, pattern := range cartPatterns {
		if attrContains(doc.Find("*"), "class", pattern) {
			sig.HasShoppingCart = true
			sig.DetectedElements = append(sig.DetectedElements, "cart-indicator: "+pattern)
			return
		}
		if attrContains(doc.Find("*"), "id", pattern) {
			sig.HasShoppingCart = true
			sig.DetectedElements = append(sig.DetectedElements, "cart-id: "+pattern)
			return
		}
		if attrContains(doc.Find("i, span, svg"), "class", pattern) {
			sig.HasShoppingCart = true
			sig.DetectedElements = append(sig.DetectedElements, "cart-icon: "+pattern)
			return
		}
	}
}

func detectJobBoard(doc *goquery.Document, sig *UISignals) {
	pageText := strings.ToLower(doc.Text())

	for _, pattern := range jobPatterns {
		if attrContains(doc.Find("a"), "href", pattern) {
			sig.HasJobBoard = true
			sig.DetectedElements = append(sig.DetectedElements, "job-board: "+pattern)
			return
		}
		if strings.Contains(pageText, strings.ReplaceAll(pattern, "-", " ")) {
			sig.HasJobBoard = true
			sig.DetectedElements = append(sig.DetectedElements, "job-mention: "+pattern)
			return
		}
	}
}

// customCheck interprets a small fixed vocabulary of visual-check
// directives. Anything else produces a generic no-findings result.
func customCheck(doc *goquery.Document, instruction string) string {
	lower := strings.ToLower(instruction)
	var findings []string

	if strings.Contains(lower, "shopping cart") || strings.Contains(lower, "cart icon") {
		if attrContains(doc.Find("*"), "class", "cart") {
			findings = append(findings, "Shopping cart element detected")
		} else {
			findings = append(findings, "No shopping cart element found")
		}
	}

	if strings.Contains(lower, "contact form") {
		found := false
		doc.Find("form").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			html, err := goquery.OuterHtml(s)
			if err != nil {
				return true
			}
			html = strings.ToLower(html)
			if strings.Contains(html, "contact") || strings.Contains(html, "message") {
				found = true
				return false
			}
			return true
		})
		if found {
			findings = append(findings, "Contact form detected")
		} else {
			findings = append(findings, "No contact form found")
		}
	}

	if strings.Contains(lower, "product") && strings.Contains(lower, "page") {
		if attrContains(doc.Find("*"), "class", "product") {
			findings = append(findings, "Product pages detected")
		} else {
			findings = append(findings, "No product page indicators found")
		}
	}

	if len(findings) == 0 {
		return "Custom check performed, no specific findings"
	}
	return strings.Join(findings, "; ")
}

// attrContains reports whether any element in sel has attr containing
// pattern, case-insensitively.
func attrContains(sel *goquery.Selection, attr, pattern string) bool {
	found := false
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		val, ok := s.Attr(attr)
		if ok && strings.Contains(strings.ToLower(val), pattern) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Summary renders the detected elements as a single diagnostic string for
// the output table.
func (s UISignals) Summary() string {
	if len(s.DetectedElements) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s]", strings.Join(s.DetectedElements, ", "))
}
