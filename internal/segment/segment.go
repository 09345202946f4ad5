// Package segment splits raw text into bounded-length chunks along sentence
// boundaries so each chunk fits a single synthesis request.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars matches the input cap of the remote speech endpoint.
const DefaultMaxChars = 3500

// Split cuts text into chunks of at most maxChars characters, never breaking
// inside a sentence. A single sentence longer than maxChars becomes its own
// oversized chunk. Text without any sentence boundary is returned as one
// chunk regardless of length. Empty or whitespace-only text yields nil.
//
// Boundary detection is deliberately naive: a sentence ends at the first
// '.', '!' or '?' followed by whitespace. Abbreviations like "Dr." will
// produce false breaks.
func Split(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = DefaultMaxChars
	}
	sentences := sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]string, 0, 1)
	var cur strings.Builder
	for _, s := range sentences {
		if cur.Len() == 0 {
			cur.WriteString(s)
			continue
		}
		if cur.Len()+1+len(s) <= maxChars {
			cur.WriteByte(' ')
			cur.WriteString(s)
			continue
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// sentences scans text linearly and returns trimmed sentence spans in input
// order. The trailing span is kept even without terminal punctuation.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isTerminal(r) {
			next, _ := utf8.DecodeRuneInString(text[i+size:])
			if i+size == len(text) || unicode.IsSpace(next) {
				if s := strings.TrimSpace(text[start : i+size]); s != "" {
					out = append(out, collapseSpace(s))
				}
				start = i + size
			}
		}
		i += size
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, collapseSpace(s))
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// collapseSpace normalizes internal whitespace runs (page breaks, wrapped
// lines from PDF extraction) to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
