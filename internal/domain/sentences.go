package domain

import (
	"strings"
	"unicode"
)

// abbreviations that end with a period but do not terminate a
// sentence. Lowercase, without the trailing period.
var sentenceAbbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "al": {}, "inc": {},
	"ltd": {}, "co": {}, "corp": {}, "no": {}, "vol": {}, "fig": {}, "approx": {},
}

// SplitSentences splits prose into sentences on '.', '!', and '?'
// terminators followed by whitespace. Common abbreviations, decimal
// numbers, and initials do not end a sentence. Citation sentence
// indexes are defined against the slice this returns.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Decimal point or version number: digit on both sides.
		if r == '.' && i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		// A terminator only ends the sentence at end-of-text or when
		// followed by whitespace.
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// isAbbreviation reports whether the text before a period ends in a
// known abbreviation or a single-letter initial.
func isAbbreviation(before []rune) bool {
	// Find the last word.
	end := len(before)
	i := end
	for i > 0 && !unicode.IsSpace(before[i-1]) {
		i--
	}
	word := strings.ToLower(string(before[i:end]))
	word = strings.TrimSuffix(word, ".")
	if word == "" {
		return false
	}
	// Single-letter initials such as "J." in "J. Smith".
	if len([]rune(word)) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return true
	}
	_, ok := sentenceAbbreviations[word]
	return ok
}
