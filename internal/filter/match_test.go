package filter

import "testing"

func TestQueryMatch(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"Substring", "ell", []string{"Hello"}, true},
		{"CaseInsensitive", "HELLO", []string{"hello"}, true},
		{"Accent", "cafe", []string{"Café"}, true},
		{"AccentDecomposed", "cafe", []string{"Cafe\u0301"}, true},
		{"AccentedQueryIsStrict", "café", []string{"Cafe"}, false},
		{"AccentedQueryCase", "CAFÉ", []string{"café"}, true},
		{"FullwidthQuery", "Ａ", []string{"a"}, true},
		{"FullwidthData", "abc", []string{"ＡＢＣ"}, true},
		{"FullwidthDigit", "42", []string{"４２"}, true},
		{"SkipHyphen", "acdc", []string{"AC-DC"}, true},
		{"SkipSlash", "acdc", []string{"AC/DC"}, true},
		{"SkipOnlyOnce", "ab", []string{"a--b"}, false},
		{"QueryPunctuation", "ac/dc", []string{"AC/DC"}, true},
		{"NoMatch", "xyz", []string{"Hello"}, false},
		{"StrokedLetter", "lodz", []string{"Łódź"}, true},
		{"Greek", "σοφία", []string{"ΣΟΦΊΑ"}, true},
		{"Cyrillic", "москва", []string{"МОСКВА"}, true},
		{"OtherScriptExact", "東京", []string{"東京タワー"}, true},
		{"OtherFieldMatches", "rock", []string{"Song", "Artist", "Rock Album"}, true},
		{"AllKeywords", "foo bar", []string{"foo", "bar"}, true},
		{"MissingKeyword", "foo baz", []string{"foo", "bar"}, false},
		{"EmptyKeyword", "foo ", []string{"foo"}, true},
		{"EmptyField", "a", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compile(tt.query).Match(tt.fields...); got != tt.want {
				t.Errorf("Compile(%q).Match(%q) = %v, want %v", tt.query, tt.fields, got, tt.want)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	if Compile("").Active() {
		t.Error("Expected the empty query to be inactive")
	}
	q := Compile("a b")
	if !q.Active() || len(q.keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(q.keywords))
	}
	if q.String() != "a b" {
		t.Errorf("Expected the raw query back, got %q", q.String())
	}
}

func TestIsSkippable(t *testing.T) {
	for _, r := range "!-/:@[`{~¡¿×÷–—…€₿￥！～" {
		if !isSkippable(r) {
			t.Errorf("Expected %q to be skippable", r)
		}
	}
	for _, r := range "aZ09 éあ" {
		if isSkippable(r) {
			t.Errorf("Expected %q not to be skippable", r)
		}
	}
}
