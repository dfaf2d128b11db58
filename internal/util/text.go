package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPostRunes is the length limit of a single post.
const MaxPostRunes = 280

var (
	whitespace = regexp.MustCompile(`\s+`)
	blankLine  = regexp.MustCompile(`\n[ \t]*\n`)
)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// SplitThread splits text into thread parts. Blank lines separate parts;
// a part longer than max runes is broken at word boundaries, and a single
// word longer than max is cut.
func SplitThread(text string, max int) []string {
	if max <= 0 {
		max = MaxPostRunes
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, para := range blankLine.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= max {
			out = append(out, para)
			continue
		}
		out = append(out, wrap(NormalizeWhitespace(para), max)...)
	}
	return out
}

func wrap(s string, max int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, w := range strings.Fields(s) {
		for utf8.RuneCountInString(w) > max {
			flush()
			r := []rune(w)
			out = append(out, string(r[:max]))
			w = string(r[max:])
		}
		n := utf8.RuneCountInString(w)
		if curLen > 0 && curLen+1+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += n
	}
	flush()
	return out
}
