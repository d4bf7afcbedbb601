// Package scrape downloads company pages and extracts the signals the
// prompt composer consumes: cleaned text, navigation link texts and the
// meta description. Retry mechanics (protocol fallback, www. variant,
// certificate bypass) stay inside this package; callers only see the
// success or failure outcome.
package scrape

import (
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Below this many characters of cleaned text the page is likely
// script-rendered and readability gets a second opinion.
const sparseTextThreshold = 200

// navLinkMaxLen filters out long non-nav link texts.
const navLinkMaxLen = 50

// WebsiteSignals is everything extracted from one URL in one run.
// Immutable after creation. A non-nil Err invalidates the other fields.
type WebsiteSignals struct {
	TextContent     string
	NavLinks        []string
	MetaDescription string
	Err             error
}

// Page couples the extracted signals with the parsed document so the
// signal extractor can scan element structure without a second fetch.
type Page struct {
	Signals WebsiteSignals
	Doc     *goquery.Document
}

// Scraper fetches and parses company websites.
type Scraper struct {
	client         *http.Client
	insecureClient *http.Client
	maxRetries     int
	textLimit      int
}

// New creates a Scraper. Zero values fall back to sensible defaults.
func New(timeout time.Duration, maxRetries, textLimit int) *Scraper {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if textLimit <= 0 {
		textLimit = 6000
	}
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		insecureClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint: gosec
			},
		},
		maxRetries: maxRetries,
		textLimit:  textLimit,
	}
}

// Fetch downloads a company page, trying protocol and www. variants with
// retries before giving up. The returned Page always has well-formed
// Signals; on failure Signals.Err is set and Doc is nil.
func (s *Scraper) Fetch(rawURL string) *Page {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &Page{Signals: WebsiteSignals{Err: fmt.Errorf("no URL provided")}}
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	var lastErr error
	for _, tryURL := range urlVariants(rawURL) {
		for attempt := 0; attempt < s.maxRetries; attempt++ {
			if attempt > 0 {
				log.Printf("   Scraping: %s (attempt %d)", tryURL, attempt+1)
				time.Sleep(time.Second)
			} else {
				log.Printf("   Scraping: %s", tryURL)
			}

			body, err := s.get(tryURL)
			if err != nil {
				lastErr = err
				continue
			}

			page, err := s.parse(body)
			if err != nil {
				lastErr = err
				continue
			}
			return page
		}
	}

	return &Page{Signals: WebsiteSignals{Err: fmt.Errorf("scraping failed: %w", lastErr)}}
}

// urlVariants returns the URL plus its http:// and www. fallbacks, in
// the order they should be tried.
func urlVariants(u string) []string {
	variants := []string{u}
	if strings.HasPrefix(u, "https://") {
		variants = append(variants, "http://"+strings.TrimPrefix(u, "https://"))
	}
	if !strings.Contains(u, "www.") {
		variants = append(variants, strings.Replace(u, "://", "://www.", 1))
	}
	return variants
}

func (s *Scraper) get(tryURL string) (string, error) {
	body, err := s.doGet(s.client, tryURL)
	if err == nil {
		return body, nil
	}
	// Broken certificate chains are common on small-company sites;
	// retry once without verification.
	if strings.Contains(err.Error(), "certificate") || strings.Contains(err.Error(), "tls") {
		return s.doGet(s.insecureClient, tryURL)
	}
	return "", err
}

func (s *Scraper) doGet(client *http.Client, tryURL string) (string, error) {
	req, err := http.NewRequest("GET", tryURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parse extracts signals from raw HTML.
func (s *Scraper) parse(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	sig := WebsiteSignals{
		MetaDescription: metaDescription(doc),
		NavLinks:        navLinks(doc),
	}

	// Text extraction mutates the tree, so clone first: the caller still
	// needs the full document for UI signal scanning.
	textDoc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	text := cleanText(textDoc)

	if len(text) < sparseTextThreshold {
		if extracted := s.readabilityText(html); len(extracted) > len(text) {
			text = extracted
		}
	}
	if len(text) > s.textLimit {
		text = text[:s.textLimit]
	}
	sig.TextContent = text

	return &Page{Signals: sig, Doc: doc}, nil
}

// readabilityText runs readability's main-content extraction as a
// fallback for pages whose cleaned text is nearly empty.
func (s *Scraper) readabilityText(html string) string {
	base, _ := url.Parse("https://localhost/")
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(article.TextContent), " ")
}

func metaDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).Attr("content")
	return content
}

// navLinks collects anchor texts from nav/header elements and from
// menu-classed containers, preserving first-seen order.
func navLinks(doc *goquery.Document) []string {
	var links []string
	seen := make(map[string]struct{})

	collect := func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if text == "" || len(text) >= navLinkMaxLen {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		links = append(links, text)
	}

	doc.Find("nav a, header a").Each(collect)

	for _, cls := range []string{"menu", "nav", "navigation", "navbar"} {
		doc.Find("*").Each(func(_ int, s *goquery.Selection) {
			val, ok := s.Attr("class")
			if !ok || !strings.Contains(strings.ToLower(val), cls) {
				return
			}
			s.Find("a").Each(collect)
		})
	}

	return links
}

// cleanText strips boilerplate elements and collapses whitespace, the
// same shape of text the model is asked to describe.
func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, noscript, svg").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
