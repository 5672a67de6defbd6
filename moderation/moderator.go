package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"rendezvous/errors"
)

// Moderator finds dictionary words in free text, ignoring case, punctuation,
// spacing and common leet speak substitutions.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
	log          *slog.Logger
}

type TextMapping struct {
	Normalized []rune
	OrigIdx    []int
}

// NewModerator initializes the Aho-Corasick automaton with a normalized version of the provided censored words list.
// Words made only of noise are ignored.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	normalized := lo.Uniq(lo.FilterMap(censoredWords, func(word string, _ int) (string, bool) {
		n := normalizeRunes([]rune(word))
		return string(n), len(n) > 0
	}))
	patterns := lo.Map(normalized, func(word string, _ int) []rune { return []rune(word) })
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderation automaton built", "patterns", len(patterns))
	return &Moderator{matcher: m, censoredChar: censoredChar, log: log}, nil
}

// Censor replaces every matched word with the censored character while
// preserving the original spacing, and returns the dictionary words found.
func (m *Moderator) Censor(original string) (string, []string) {
	origRunes := []rune(original)
	matches := m.matches(origRunes)
	if len(matches) == 0 {
		return original, nil
	}

	found := make([]string, 0, len(matches))
	for _, hit := range matches {
		for i := hit.start; i < hit.end; i++ {
			origRunes[i] = m.censoredChar
		}
		found = append(found, hit.word)
	}
	return string(origRunes), found
}

// Contains reports whether text holds at least one dictionary word.
func (m *Moderator) Contains(text string) bool {
	return len(m.matches([]rune(text))) > 0
}

type match struct {
	start, end int
	word       string
}

// matches returns the dictionary hits of text in original rune positions.
// A hit inside a longer word ("puta" in "reputation") is not a match.
func (m *Moderator) matches(origRunes []rune) []match {
	mapping := m.normalize(origRunes)
	if len(mapping.Normalized) == 0 {
		return nil
	}

	var res []match
	for _, span := range m.matcher.MultiPatternSearch(mapping.Normalized, false) {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.OrigIdx) {
			continue
		}
		origStart := mapping.OrigIdx[normStart]
		origEnd := mapping.OrigIdx[normEnd-1] + 1
		if !atWordBoundary(origRunes, origStart, origEnd) {
			continue
		}
		res = append(res, match{start: origStart, end: origEnd, word: string(span.Word)})
	}
	return res
}

func atWordBoundary(runes []rune, start, end int) bool {
	if start > 0 && isWordRune(runes[start-1]) {
		return false
	}
	if end < len(runes) && isWordRune(runes[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// normalize transforms the input string into a searchable format and tracks original rune positions.
func (m *Moderator) normalize(origRunes []rune) TextMapping {
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return TextMapping{Normalized: norm, OrigIdx: origIdx}
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common Leet speak characters back to their standard alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
