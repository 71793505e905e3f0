package filter

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query is a compiled filter query. Each keyword must match for a track to
// be kept.
type Query struct {
	raw      string
	keywords [][]rune
}

// Compile splits a query into keywords on ASCII spaces
func Compile(query string) Query {
	q := Query{raw: query}
	if query == "" {
		return q
	}
	for _, word := range strings.Split(norm.NFC.String(query), " ") {
		keyword := []rune(word)
		for i, r := range keyword {
			keyword[i] = narrow(r)
		}
		q.keywords = append(q.keywords, keyword)
	}
	return q
}

// Active reports whether the query filters anything. The empty query does
// not.
func (q Query) Active() bool {
	return q.raw != ""
}

// String returns the query as given to Compile
func (q Query) String() string {
	return q.raw
}

// Match reports whether every keyword is found in at least one of the
// fields
func (q Query) Match(fields ...string) bool {
	if len(q.keywords) == 0 {
		return true
	}
	text := make([][]rune, len(fields))
	for i, f := range fields {
		text[i] = []rune(norm.NFC.String(f))
	}
	for _, keyword := range q.keywords {
		found := false
		for _, t := range text {
			if contains(t, keyword) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// contains looks for keyword at every position of text
func contains(text, keyword []rune) bool {
	if len(keyword) == 0 {
		return true
	}
	for i, r := range text {
		if check(keyword[0], r) == match && matchAt(text[i+1:], keyword[1:]) {
			return true
		}
	}
	return false
}

// matchAt matches keyword at the start of text. One skippable character
// may precede each keyword character.
func matchAt(text, keyword []rune) bool {
	i := 0
	for _, k := range keyword {
		if i >= len(text) {
			return false
		}
		switch check(k, text[i]) {
		case match:
			i++
		case skip:
			i++
			if i >= len(text) || check(k, text[i]) != match {
				return false
			}
			i++
		default:
			return false
		}
	}
	return true
}
