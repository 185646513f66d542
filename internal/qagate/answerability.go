package qagate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

const oracleSystemPrompt = `You answer comprehension questions about a text.
Answer strictly from the text given. Do not use outside knowledge. If the
text does not contain the answer, say so explicitly.`

const oracleShape = `{
  "answer": "your answer, one or two sentences"
}`

const (
	oracleMaxRetries  = 3
	oracleBaseBackoff = 1 * time.Second
)

type oracleAnswer struct {
	Answer string `json:"answer"`
}

// checkAnswerability replays every question against its unit's text: an
// oracle answers from the text alone, and the judge decides whether that
// answer agrees with the stored key. Disagreement, or a comparison that
// cannot be completed, withholds the unit from publication. Oracle calls
// run under the engine's concurrency limit so they share the generation
// rate budget.
func (e *Engine) checkAnswerability(ctx context.Context, snap *store.Snapshot) []Flag {
	results := make([]*Flag, len(snap.Questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.OracleConcurrency)
	for i, q := range snap.Questions {
		i, q := i, q
		unit := snap.UnitByID(q.ContentID)
		if unit == nil {
			// The link check owns unresolvable content ids.
			continue
		}
		g.Go(func() error {
			results[i] = e.replayQuestion(gctx, q, unit)
			return nil
		})
	}
	// Workers never return errors; defects surface as flags.
	_ = g.Wait()

	var flags []Flag
	for _, f := range results {
		if f != nil {
			flags = append(flags, *f)
		}
	}
	return flags
}

// replayQuestion runs one oracle-and-judge round trip. Returns nil when
// the answers agree.
func (e *Engine) replayQuestion(ctx context.Context, q *catalog.Question, unit *catalog.ContentUnit) *Flag {
	answer, err := e.askOracle(ctx, q, unit)
	if err != nil {
		e.logger.Warn("oracle call failed",
			zap.String("question_id", q.ID),
			zap.Error(err))
		return &Flag{
			ItemID:       q.ID,
			ItemType:     ItemTypeQuestion,
			Kind:         KindUnanswerableViolation,
			Reason:       fmt.Sprintf("answerability could not be verified: %v", err),
			SuggestedFix: "re-run the gate once the generation backend recovers",
			unitIDs:      []string{unit.ID},
		}
	}

	equivalent, err := e.judge.Equivalent(ctx, q.Prompt, q.AnswerKey, answer)
	if err != nil {
		e.logger.Warn("judge comparison failed",
			zap.String("question_id", q.ID),
			zap.Error(err))
		return &Flag{
			ItemID:       q.ID,
			ItemType:     ItemTypeQuestion,
			Kind:         KindUnanswerableViolation,
			Reason:       fmt.Sprintf("answer comparison could not be completed: %v", err),
			SuggestedFix: "re-run the gate once the generation backend recovers",
			unitIDs:      []string{unit.ID},
		}
	}
	if equivalent {
		return nil
	}
	return &Flag{
		ItemID:       q.ID,
		ItemType:     ItemTypeQuestion,
		Kind:         KindUnanswerableViolation,
		Reason:       fmt.Sprintf("oracle answered %q, answer key is %q", answer, q.AnswerKey),
		SuggestedFix: "rewrite the question or fix the answer key so the text supports it",
		unitIDs:      []string{unit.ID},
	}
}

// askOracle asks the generator to answer the question from the unit text
// alone, retrying transient failures up to 3 times.
func (e *Engine) askOracle(ctx context.Context, q *catalog.Question, unit *catalog.ContentUnit) (string, error) {
	prompt := fmt.Sprintf("Text:\n%s\n\nQuestion: %s", q.RangeText(unit), q.Prompt)

	var lastErr error
	for attempt := 0; attempt < oracleMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := oracleBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		raw, err := e.generator.Generate(ctx, genport.Request{
			System: oracleSystemPrompt,
			Prompt: prompt,
			Shape:  oracleShape,
		})
		if err != nil {
			lastErr = err
			if _, transient := genport.KindOf(err); transient {
				continue
			}
			return "", err
		}

		var out oracleAnswer
		if err := json.Unmarshal(raw, &out); err != nil {
			lastErr = fmt.Errorf("oracle output does not match shape: %w", err)
			continue
		}
		if out.Answer == "" {
			lastErr = fmt.Errorf("oracle returned an empty answer")
			continue
		}
		return out.Answer, nil
	}
	return "", fmt.Errorf("oracle exhausted %d attempts: %w", oracleMaxRetries, lastErr)
}
