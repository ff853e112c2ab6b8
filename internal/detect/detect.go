// Package detect finds the "load more" control of a page.
//
// Candidates are all button-like elements (native buttons and elements with
// role=button) in document order. The first candidate whose text or
// aria-label starts with the word "load" wins.
package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/loadmore/internal/utils"
)

// ButtonSelector selects all button-like elements.
const ButtonSelector = `button, [role="button"]`

// "load" as the leading word, so "Load more" and "LOAD" match but
// "Loading…" and "reload" don't.
var loadPattern = regexp.MustCompile(`(?i)^\s*load\b`)

// A Candidate is a button-like element of a page.
type Candidate struct {
	// Index is the position of the element among all elements matched
	// by ButtonSelector.
	Index int `json:"index"`
	// Target is the index of the element that should be clicked, the
	// closest enclosing button or the element itself.
	Target   int    `json:"target"`
	Text     string `json:"text"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"` // of the target
}

// MatchesLabel reports whether s starts with the word "load", ignoring case
// and surrounding whitespace.
func MatchesLabel(s string) bool {
	return loadPattern.MatchString(strings.TrimSpace(s))
}

// Matches reports whether c is a load control.
func (c Candidate) Matches() bool {
	return MatchesLabel(c.Text) || MatchesLabel(c.Label)
}

// Name returns the text that made the candidate match, or its text if it
// doesn't match.
func (c Candidate) Name() string {
	if !MatchesLabel(c.Text) && MatchesLabel(c.Label) {
		return c.Label
	}
	return c.Text
}

func (c Candidate) String() string {
	return fmt.Sprintf("[%d] %q (aria-label %q)", c.Index, utils.ShortenString(c.Text, 40), utils.ShortenString(c.Label, 40))
}

// First returns the first matching candidate.
func First(cands []Candidate) (Candidate, bool) {
	for _, c := range cands {
		if c.Matches() {
			return c, true
		}
	}
	return Candidate{}, false
}

// Candidates collects all button-like elements of doc in document order.
func Candidates(doc *goquery.Document) []Candidate {
	sel := doc.Find(ButtonSelector)
	cands := make([]Candidate, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		label, _ := s.Attr("aria-label")
		target := s
		if btn := s.Closest("button"); btn.Length() > 0 {
			target = btn
		}
		cands = append(cands, Candidate{
			Index:    i,
			Target:   sel.IndexOfSelection(target),
			Text:     strings.TrimSpace(s.Text()),
			Label:    strings.TrimSpace(label),
			Disabled: isDisabled(target),
		})
	})
	return cands
}

// FromHTML parses html and returns its first load control.
func FromHTML(html string) (Candidate, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Candidate{}, false, err
	}
	c, ok := First(Candidates(doc))
	return c, ok, nil
}

// Only native buttons can be disabled.
func isDisabled(s *goquery.Selection) bool {
	if goquery.NodeName(s) != "button" {
		return false
	}
	_, ok := s.Attr("disabled")
	return ok
}
