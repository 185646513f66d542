package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/language"
)

// systemPrompt establishes the generator's role.
const systemPrompt = `You are an expert curriculum author for language learners.
Given a seed word or grammar pattern, produce one learning item: a concise
definition in English, 3 to 5 natural example sentences in the target
language, the dictionary form (lemma), part of speech, a short sense gloss
when the item is polysemous, and the difficulty band on the given level
system. Keep the definition focused on a single sense or rule; do not
bundle several rules into one item.`

// itemShape is the JSON shape descriptor sent with every request.
const itemShape = `{
  "language": "ISO 639-1 code, echo the requested language",
  "category": "echo the requested category",
  "target_item": "the word or pattern exactly as it appears to learners",
  "definition": "one-sense definition in English",
  "examples": ["3 to 5 example sentences in the target language"],
  "romanization": "pinyin/romaji; required for zh and ja, else omit",
  "sense_gloss": "short disambiguating label, omit if unambiguous",
  "lemma": "dictionary form",
  "pos": "part of speech",
  "level_system": "echo the requested level system",
  "level_min": "easiest level the item suits",
  "level_max": "hardest level the item suits"
}`

// buildRequest assembles the generation request for an attempt. Feedback
// from earlier attempts is appended verbatim so the model can correct
// itself instead of replaying the same failure.
func buildRequest(source SourceItem, feedback []string) genport.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\nCategory: %s\nLevel system: %s\nSeed item: %s\n",
		source.Language, source.Category, source.LevelSystem, source.TargetItem)
	if source.Hint != "" {
		fmt.Fprintf(&b, "Guidance: %s\n", source.Hint)
	}
	if cap := language.ForCode(string(source.Language)); cap.RequiresRomanization() {
		b.WriteString("Romanization is mandatory for this language.\n")
	}
	if len(feedback) > 0 {
		b.WriteString("\nYour previous attempts were rejected. Fix every problem below:\n")
		for i, f := range feedback {
			fmt.Fprintf(&b, "Attempt %d: %s\n", i+1, f)
		}
	}

	return genport.Request{
		System: systemPrompt,
		Prompt: b.String(),
		Shape:  itemShape,
	}
}

// decodeCandidate parses raw generator output into a learning item. A
// decode failure is a malformed-output generation failure; it consumes
// the same retry budget as transport failures.
func decodeCandidate(raw json.RawMessage) (*catalog.LearningItem, error) {
	var item catalog.LearningItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &genport.GenerationError{
			Kind: genport.FailureMalformed,
			Err:  fmt.Errorf("candidate does not match item shape: %w", err),
		}
	}
	return &item, nil
}
