package filter

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

type result int

const (
	noMatch result = iota
	match
	skip
)

// check compares a keyword character with a data character
func check(k, d rune) result {
	if k == d {
		return match
	}
	if isSkippable(d) {
		return skip
	}
	if equivalent(k, d) {
		return match
	}
	return noMatch
}

// isSkippable reports whether a data character may be passed over once
// while matching. These are punctuation, symbols and currency signs.
func isSkippable(r rune) bool {
	switch {
	case r < 0x80:
		return r > ' ' && r < 0x7f && !isASCIIAlnum(r)
	case r >= 0xa1 && r <= 0xbf, r == '×', r == '÷':
		return true
	case r >= 0x2012 && r <= 0x204a:
		return skippableGeneral[r]
	case r >= 0xff01 && r <= 0xff0f, r >= 0xff1a && r <= 0xff20,
		r >= 0xff3b && r <= 0xff40, r >= 0xff5b && r <= 0xff60:
		return true
	case r >= 0x20a0 && r <= 0x20bf:
		return true
	}
	return skippableCurrency[r]
}

var skippableGeneral = runeSet("‒–—―‗‘’‚‛“”„†‡•…‰′″‹›‼‾⁄⁊")

var skippableCurrency = runeSet("֏؋৲৳৻૱௹฿៛﹩￠￡￥￦")

func runeSet(s string) map[rune]bool {
	m := make(map[rune]bool)
	for _, r := range s {
		m[r] = true
	}
	return m
}

func isASCIIAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isASCIILetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// baseLetters maps letters to the lowercase ASCII letter they are written
// with: case pairs, fullwidth forms and accented Latin letters.
var baseLetters = func() map[rune]rune {
	m := make(map[rune]rune)
	for r := 'a'; r <= 'z'; r++ {
		upper := unicode.ToUpper(r)
		m[r] = r
		m[upper] = r
		m[r+fullwidthOffset] = r
		m[upper+fullwidthOffset] = r
	}
	for r := rune(0xc0); r <= 0x17f; r++ {
		decomposed := []rune(norm.NFD.String(string(r)))
		if len(decomposed) > 1 && isASCIILetter(decomposed[0]) {
			m[r] = unicode.ToLower(decomposed[0])
		}
	}
	for _, pair := range []struct {
		letters string
		base    rune
	}{
		{"ı", 'i'},
		{"ĸ", 'k'},
		{"ŉ", 'n'},
		{"ſ", 's'},
		{"Øø", 'o'},
		{"ÐðĐđ", 'd'},
		{"Ħħ", 'h'},
		{"ĿŀŁł", 'l'},
		{"Ŧŧ", 't'},
	} {
		for _, r := range pair.letters {
			m[r] = pair.base
		}
	}
	return m
}()

// fullwidthOffset is the distance between ASCII and the fullwidth forms block
const fullwidthOffset = 0xff01 - '!'

// foldScripts are the scripts where letters match their other case
var foldScripts = []*unicode.RangeTable{
	unicode.Latin,
	unicode.Greek,
	unicode.Coptic,
	unicode.Cyrillic,
	unicode.Armenian,
	unicode.Cherokee,
}

func equivalent(k, d rune) bool {
	switch {
	case isASCIILetter(k):
		base, ok := baseLetters[d]
		return ok && base == unicode.ToLower(k)
	case k > ' ' && k < 0x7f:
		return d == k+fullwidthOffset
	case unicode.IsOneOf(foldScripts, k):
		for f := unicode.SimpleFold(k); f != k; f = unicode.SimpleFold(f) {
			if f == d {
				return true
			}
		}
	}
	return false
}

// narrow maps fullwidth forms to their ASCII equivalent
func narrow(r rune) rune {
	p := width.LookupRune(r)
	if p.Kind() != width.EastAsianFullwidth {
		return r
	}
	if n := p.Narrow(); n != 0 {
		return n
	}
	return r
}
