package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split breaks text into sentences and packs them into chunks of at most
// max runes. Sentences longer than max are split on word boundaries, and
// words longer than max are cut.
func Split(text string, max int) []string {
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	add := func(piece string) {
		n := utf8.RuneCountInString(cur.String())
		m := utf8.RuneCountInString(piece)
		if n > 0 && n+1+m > max {
			flush()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(piece)
	}

	for _, sentence := range sentences(text) {
		if utf8.RuneCountInString(sentence) <= max {
			add(sentence)
			continue
		}
		for _, word := range strings.Fields(sentence) {
			for utf8.RuneCountInString(word) > max {
				r := []rune(word)
				flush()
				chunks = append(chunks, string(r[:max]))
				word = string(r[max:])
			}
			add(word)
		}
	}
	flush()
	return chunks
}

// sentences splits after ., ! or ? followed by whitespace.
func sentences(text string) []string {
	var out []string
	rs := []rune(strings.TrimSpace(text))
	start := 0
	for i := 0; i < len(rs); i++ {
		if !strings.ContainsRune(".!?", rs[i]) {
			continue
		}
		if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(rs[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(rs[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
