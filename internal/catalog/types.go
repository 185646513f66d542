package catalog

import (
	"time"
)

// Language is an ISO 639-1 language code (zh, ja, en, fr, es, ...).
type Language string

// Category classifies a learning item.
type Category string

const (
	CategoryVocabulary Category = "vocabulary"
	CategoryGrammar    Category = "grammar"
)

// ContentType classifies a content unit.
type ContentType string

const (
	ContentConversation ContentType = "conversation"
	ContentStory        ContentType = "story"
)

// LearningItem is an atomic pedagogical unit: a word, grammar pattern or
// similar, with a definition and usage examples.
type LearningItem struct {
	// ID is the unique identifier for this item.
	ID string `json:"id"`

	// Language the item teaches.
	Language Language `json:"language"`

	// Category of the item (vocabulary, grammar).
	Category Category `json:"category"`

	// TargetItem is the surface form learners see (word or pattern).
	TargetItem string `json:"target_item"`

	// Definition explains the item in the learner's language.
	Definition string `json:"definition"`

	// Examples are usage examples; 3 to 5 for vocabulary and grammar.
	Examples []string `json:"examples"`

	// Romanization is the phonetic transcription. Required for zh and ja.
	Romanization string `json:"romanization,omitempty"`

	// SenseGloss disambiguates multiple meanings of the same lemma.
	SenseGloss string `json:"sense_gloss,omitempty"`

	// Lemma is the dictionary form; TargetItem is used when empty.
	Lemma string `json:"lemma,omitempty"`

	// POS is the part of speech, when known.
	POS string `json:"pos,omitempty"`

	// LevelSystem names the proficiency scale (cefr, hsk, jlpt).
	LevelSystem string `json:"level_system"`

	// LevelMin and LevelMax bound the item's difficulty on LevelSystem.
	LevelMin string `json:"level_min"`
	LevelMax string `json:"level_max"`

	// Version increments each time an item with the same identity key
	// supersedes a previous one. Items are never edited in place.
	Version int `json:"version"`

	// CreatedAt is when this version was produced.
	CreatedAt time.Time `json:"created_at"`
}

// Segment is a sub-span of a content unit's text, annotated with the
// learning items the generator asserts it exercises.
type Segment struct {
	Text            string   `json:"text"`
	LearningItemIDs []string `json:"learning_item_ids"`
}

// ContentUnit is a conversation or story composed of segments.
type ContentUnit struct {
	ID       string      `json:"id"`
	Language Language    `json:"language"`
	Type     ContentType `json:"type"`
	Level    string      `json:"level"`

	Segments []Segment `json:"segments"`

	// LearningItemIDs is the deduplicated union of segment-level ids.
	// The presence check verifies this invariant.
	LearningItemIDs []string `json:"learning_item_ids"`

	// Publishable is set by the QA gate: true only when no flagged item
	// references this unit.
	Publishable bool `json:"publishable"`
}

// QuestionType classifies a comprehension question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpenEnded      QuestionType = "open_ended"
	QuestionTrueFalse      QuestionType = "true_false"
)

// Question is a comprehension question about a content unit.
type Question struct {
	ID        string       `json:"id"`
	ContentID string       `json:"content_id"`
	Type      QuestionType `json:"question_type"`
	Prompt    string       `json:"prompt"`
	AnswerKey string       `json:"answer_key"`

	// SegmentRange optionally restricts the question to a span of
	// segments, [Start, End] inclusive.
	SegmentRange *SegmentRange `json:"segment_range,omitempty"`
}

// SegmentRange is an inclusive range of segment indexes.
type SegmentRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ManualReviewEntry records an item that could not be validated
// automatically and awaits human remediation.
type ManualReviewEntry struct {
	// ItemKey is the normalized identity key of the failed item.
	ItemKey string `json:"item_key"`

	// Attempts is the number of generation attempts made.
	Attempts int `json:"attempts"`

	// LastError describes the final failure.
	LastError string `json:"last_error"`

	// AttemptErrors holds one entry per attempt, oldest first.
	AttemptErrors []string `json:"attempt_errors,omitempty"`

	// SourcePayload is the raw seed the attempts started from.
	SourcePayload string `json:"source_payload"`

	// LastCandidate is the raw final candidate, for operator inspection.
	LastCandidate string `json:"last_candidate,omitempty"`

	// RecordedAt is when the entry was appended.
	RecordedAt time.Time `json:"recorded_at"`
}
