package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const defaultMaxWordLength = 25

var (
	consonantRun  = regexp.MustCompile(`[bcdfghjklmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ]{4,}`)
	unicodeRange  = regexp.MustCompile(`^U[A-Z0-9]{4,}$`)
	nullWord      = regexp.MustCompile(`(?i)\bnull\b`)
	nonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	multipleSpace = regexp.MustCompile(`\s+`)
)

// webCodeSubstrings marks a token as markup, script, style or page chrome.
// Matching is case-insensitive.
var webCodeSubstrings = lowerAll([]string{
	// markup
	"doctype", "</html", "<html", "</head", "</body", "</script", "<script", "</style", "<style",
	"noscript", "meta ", "head ", "body ", "html ", "link ", "title ",

	// script
	"function(", "function ", "return ", "var ", "let ", "const ", "=>", "typeof ", "instanceof ",
	"window", "document", "this.", "new ", "throw ", "catch ", "try ", "if(", "else ", "for(",
	"while(", "class ", "extends ", "constructor", "prototype", "Promise", "async ", "await",

	// style
	"rgba(", "px", "fontfamily", "fontstyle", "fontweight", "background", "border", "margin",
	"padding", "transform", "animation", "flex", "grid", "position:", "zindex", "overflow",

	// maps page chrome
	"Google Maps", "Google LLC", "Google Products", "Google Sans", "Product Sans", "Roboto",
	"Enable JavaScript", "Sign in", "Google apps", "gclid", "DoubleClick", "gtag", "analytics",

	"null", "undefined", "true", "false", "NaN", "Infinity", "void 0",
})

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Clean parses the page, drops non-content elements and returns the filtered
// visible text, title and meta description as one space-separated string.
func Clean(html string, maxWordLength int) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, svg, template").Remove()

	parts := []string{
		doc.Find("title").First().Text(),
		doc.Find(`meta[name="description"], meta[name="Description"], meta[property="og:description"]`).First().AttrOr("content", ""),
	}
	doc.Find("body, body *").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			parts = append(parts, s.Text())
		}
	})

	return FilterTokens(strings.Join(parts, " "), maxWordLength), nil
}

// FilterTokens removes tokens that look like identifiers, code or chrome and
// strips everything but letters, digits and single spaces.
func FilterTokens(text string, maxWordLength int) string {
	if maxWordLength <= 0 {
		maxWordLength = defaultMaxWordLength
	}

	tokens := strings.Fields(text)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) > maxWordLength {
			continue
		}
		if consonantRun.MatchString(token) || unicodeRange.MatchString(token) {
			continue
		}
		if containsWebCode(token) {
			continue
		}
		kept = append(kept, token)
	}

	cleaned := strings.Join(kept, " ")
	cleaned = nullWord.ReplaceAllString(cleaned, "")
	cleaned = nonAlnum.ReplaceAllString(cleaned, "")
	cleaned = multipleSpace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func containsWebCode(token string) bool {
	lower := strings.ToLower(token)
	for _, s := range webCodeSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
