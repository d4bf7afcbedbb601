package signals

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing test HTML: %v", err)
	}
	return doc
}

func TestShoppingCartClassMatch(t *testing.T) {
	doc := parseDoc(t, `<html><body><button class="add-to-cart-btn">Buy</button></body></html>`)
	sig := Extract(doc, "")

	if !sig.HasShoppingCart {
		t.Error("expected shopping cart detection")
	}
	// First matching pattern short-circuits: "cart" matches before
	// "add-to-cart" is ever tried, and only one note is recorded.
	if len(sig.DetectedElements) != 1 {
		t.Fatalf("expected exactly 1 detected element, got %v", sig.DetectedElements)
	}
	if sig.DetectedElements[0] != "cart-indicator: cart" {
		t.Errorf("unexpected note: %q", sig.DetectedElements[0])
	}
}

func TestShoppingCartIDMatch(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="mini-basket">0 items</div></body></html>`)
	sig := Extract(doc, "")

	if !sig.HasShoppingCart {
		t.Error("expected shopping cart detection via id")
	}
	if len(sig.DetectedElements) == 0 || sig.DetectedElements[0] != "cart-id: basket" {
		t.Errorf("unexpected notes: %v", sig.DetectedElements)
	}
}

func TestNoShoppingCart(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>We build bridges.</p></body></html>`)
	sig := Extract(doc, "")

	if sig.HasShoppingCart {
		t.Error("did not expect shopping cart detection")
	}
	if sig.HasJobBoard {
		t.Error("did not expect job board detection")
	}
	if len(sig.DetectedElements) != 0 {
		t.Errorf("expected no detected elements, got %v", sig.DetectedElements)
	}
}

func TestJobBoardHrefMatch(t *testing.T) {
	doc := parseDoc(t, `<html><body><a href="/careers">Work with us</a></body></html>`)
	sig := Extract(doc, "")

	if !sig.HasJobBoard {
		t.Error("expected job board detection")
	}
	if len(sig.DetectedElements) == 0 || sig.DetectedElements[0] != "job-board: careers" {
		t.Errorf("unexpected notes: %v", sig.DetectedElements)
	}
}

func TestJobBoardTextMention(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Join us on our journey.</p></body></html>`)
	sig := Extract(doc, "")

	if !sig.HasJobBoard {
		t.Error("expected job board detection from free text")
	}
	if len(sig.DetectedElements) == 0 || sig.DetectedElements[0] != "job-mention: join-us" {
		t.Errorf("unexpected notes: %v", sig.DetectedElements)
	}
}

func TestCustomCheckCart(t *testing.T) {
	withCart := parseDoc(t, `<html><body><span class="cart-count">2</span></body></html>`)
	sig := Extract(withCart, "Check for a shopping cart icon")
	if sig.CustomCheckResult != "Shopping cart element detected" {
		t.Errorf("unexpected result: %q", sig.CustomCheckResult)
	}

	without := parseDoc(t, `<html><body><p>Hello</p></body></html>`)
	sig = Extract(without, "Check for a shopping cart icon")
	if sig.CustomCheckResult != "No shopping cart element found" {
		t.Errorf("unexpected result: %q", sig.CustomCheckResult)
	}
}

func TestCustomCheckContactForm(t *testing.T) {
	doc := parseDoc(t, `<html><body><form action="/contact"><input name="email"></form></body></html>`)
	sig := Extract(doc, "Does the site have a contact form?")
	if sig.CustomCheckResult != "Contact form detected" {
		t.Errorf("unexpected result: %q", sig.CustomCheckResult)
	}
}

func TestCustomCheckProductPages(t *testing.T) {
	doc := parseDoc(t, `<html><body><div class="product-grid"></div></body></html>`)
	sig := Extract(doc, "Look for a product listing page")
	if sig.CustomCheckResult != "Product pages detected" {
		t.Errorf("unexpected result: %q", sig.CustomCheckResult)
	}
}

func TestCustomCheckUnknownDirective(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hi</p></body></html>`)
	sig := Extract(doc, "Count the testimonials")
	if sig.CustomCheckResult != "Custom check performed, no specific findings" {
		t.Errorf("unexpected result: %q", sig.CustomCheckResult)
	}
}

func TestNoVisualCheckSkipsCustomResult(t *testing.T) {
	doc := parseDoc(t, `<html><body><span class="cart"></span></body></html>`)
	sig := Extract(doc, "")
	if sig.CustomCheckResult != "" {
		t.Errorf("expected empty custom check result, got %q", sig.CustomCheckResult)
	}
}

func TestNilDocument(t *testing.T) {
	sig := Extract(nil, "shopping cart")
	if sig.HasShoppingCart || sig.HasJobBoard || sig.CustomCheckResult != "" {
		t.Errorf("expected zero-value signals for nil document, got %+v", sig)
	}
}
