package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lexcraftlabs/glossgen/internal/genport"
)

// Judge compares an oracle answer against the stored answer key.
type Judge interface {
	// Equivalent reports whether oracleAnswer and answerKey agree as
	// answers to the question.
	Equivalent(ctx context.Context, question, answerKey, oracleAnswer string) (bool, error)
}

const judgeSystemPrompt = `You compare two answers to the same comprehension
question. Decide whether they agree in meaning; wording, word order and
politeness differences do not matter. Answer strictly from the texts given.`

const judgeShape = `{
  "equivalent": true,
  "reason": "one short sentence"
}`

const (
	judgeMaxRetries  = 3
	judgeBaseBackoff = 1 * time.Second
)

// LLMJudge asks the generation port whether two answers agree.
type LLMJudge struct {
	generator genport.Generator
}

// NewLLMJudge creates a judge backed by the given generator. Sharing the
// enrichment client here keeps the oracle inside the same rate budget.
func NewLLMJudge(gen genport.Generator) *LLMJudge {
	return &LLMJudge{generator: gen}
}

type judgeVerdict struct {
	Equivalent bool   `json:"equivalent"`
	Reason     string `json:"reason"`
}

// Equivalent implements Judge. Transient generation failures are retried
// up to 3 times with exponential backoff; a still-failing comparison is
// an error, not a verdict.
func (j *LLMJudge) Equivalent(ctx context.Context, question, answerKey, oracleAnswer string) (bool, error) {
	prompt := fmt.Sprintf("Question: %s\n\nAnswer A (reference): %s\n\nAnswer B (candidate): %s",
		question, answerKey, oracleAnswer)

	var lastErr error
	for attempt := 0; attempt < judgeMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := judgeBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		raw, err := j.generator.Generate(ctx, genport.Request{
			System: judgeSystemPrompt,
			Prompt: prompt,
			Shape:  judgeShape,
		})
		if err != nil {
			lastErr = err
			if _, transient := genport.KindOf(err); transient {
				continue
			}
			return false, err
		}

		var verdict judgeVerdict
		if err := json.Unmarshal(raw, &verdict); err != nil {
			lastErr = fmt.Errorf("verdict does not match judge shape: %w", err)
			continue
		}
		return verdict.Equivalent, nil
	}

	return false, fmt.Errorf("judge exhausted %d attempts: %w", judgeMaxRetries, lastErr)
}

var _ Judge = (*LLMJudge)(nil)
