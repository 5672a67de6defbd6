package moderation

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// Gate is the local moderation verdict used before a chat message is accepted.
type Gate struct {
	moderator *Moderator
	maxLength int
	log       *slog.Logger
}

// NewGate builds a gate over moderator. Texts longer than maxLength runes are
// flagged; zero disables the length rule.
func NewGate(moderator *Moderator, maxLength int, log *slog.Logger) *Gate {
	return &Gate{moderator: moderator, maxLength: maxLength, log: log}
}

// IsInappropriate flags text containing a dictionary word or exceeding the length limit.
func (g *Gate) IsInappropriate(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.maxLength > 0 && utf8.RuneCountInString(text) > g.maxLength {
		g.log.Info("Content flagged", "reason", "too_long", "length", utf8.RuneCountInString(text))
		return true, nil
	}

	_, words := g.moderator.Censor(text)
	if len(words) == 0 {
		return false, nil
	}

	info := whatlanggo.Detect(text)
	g.log.Info("Content flagged",
		"reason", "dictionary",
		"words", len(words),
		"lang", info.Lang.Iso6391(),
		"confidence", info.Confidence)
	return true, nil
}
