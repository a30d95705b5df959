package coach

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/store"
)

var (
	positiveWords = []string{"good", "great", "excellent", "helpful", "useful", "easy", "clear", "love", "loved", "enjoy", "enjoyed"}
	negativeWords = []string{"hard", "bad", "confusing", "difficult", "unclear", "boring", "missing", "didn't understand", "too long"}
)

// Sentiment scores text by counting positive and negative keywords:
// 1 when positive words dominate, -1 when negative ones do, otherwise 0.
// Keywords match whole words, so "unclear" does not count as "clear".
func Sentiment(text string) int {
	lower := strings.ReplaceAll(strings.ToLower(text), "’", "'")
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	pos := countPhrases(words, positiveWords)
	neg := countPhrases(words, negativeWords)
	switch {
	case pos > neg:
		return 1
	case neg > pos:
		return -1
	default:
		return 0
	}
}

// countPhrases reports how many phrases occur in words as whole-word runs.
func countPhrases(words, phrases []string) int {
	n := 0
	for _, p := range phrases {
		seq := strings.Fields(p)
		for i := 0; i+len(seq) <= len(words); i++ {
			if slices.Equal(words[i:i+len(seq)], seq) {
				n++
				break
			}
		}
	}
	return n
}

// SaveFeedback stores learner feedback on a plan, or on one of its
// modules when moduleID is set. Rating is optional (0) or 1..5.
func (c *Coach) SaveFeedback(ctx context.Context, userID, planID, moduleID, text string, rating int) (*store.FeedbackRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid(errors.New("feedback text is empty"))
	}
	if rating < 0 || rating > 5 {
		return nil, invalid(fmt.Errorf("rating %d out of range 1..5", rating))
	}
	if err := c.guard(ctx, OpFeedback, userID); err != nil {
		return nil, err
	}
	plan, err := c.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if moduleID != "" {
		if _, ok := plan.Module(moduleID); !ok {
			return nil, fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
		}
	}
	return c.appendFeedback(ctx, userID, planID, moduleID, text, rating)
}

func (c *Coach) appendFeedback(ctx context.Context, userID, planID, moduleID, text string, rating int) (*store.FeedbackRecord, error) {
	rec := &store.FeedbackRecord{
		ID:        c.newID(),
		UserID:    userID,
		PlanID:    planID,
		ModuleID:  moduleID,
		Text:      text,
		Rating:    rating,
		Sentiment: Sentiment(text),
	}
	if err := c.feedback.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing feedback: %w", err)
	}
	c.log.Info("feedback saved",
		zap.String("plan", planID), zap.String("module", moduleID), zap.Int("sentiment", rec.Sentiment))
	return rec, nil
}
