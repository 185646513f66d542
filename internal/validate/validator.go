package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/language"
)

// Rule identifies a validation rule.
type Rule string

const (
	RuleShape        Rule = "shape"
	RuleRomanization Rule = "romanization"
	RuleLevelOrder   Rule = "level_order"
	RuleGranularity  Rule = "granularity"
)

// Violation names a failed rule and the offending field.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s/%s: %s", v.Rule, v.Field, v.Message)
}

// Result is the outcome of validating one candidate.
type Result struct {
	Violations []Violation
}

// Valid reports whether the candidate passed every rule.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

// Context carries the expectations a candidate is validated against.
type Context struct {
	Language    catalog.Language
	Category    catalog.Category
	LevelSystem string
}

// Limits bounds candidate content. Zero values fall back to defaults.
type Limits struct {
	// MinExamples and MaxExamples bound the examples count.
	MinExamples int
	MaxExamples int

	// MaxDefinitionRunes is the granularity ceiling on definition
	// length; definitions past it tend to bundle several rules into one
	// mega-item.
	MaxDefinitionRunes int
}

// DefaultLimits returns the production bounds.
func DefaultLimits() Limits {
	return Limits{
		MinExamples:        3,
		MaxExamples:        5,
		MaxDefinitionRunes: 320,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinExamples == 0 {
		l.MinExamples = d.MinExamples
	}
	if l.MaxExamples == 0 {
		l.MaxExamples = d.MaxExamples
	}
	if l.MaxDefinitionRunes == 0 {
		l.MaxDefinitionRunes = d.MaxDefinitionRunes
	}
	return l
}

// Validator checks candidates against shape and business rules.
type Validator struct {
	limits Limits
}

// New creates a validator with the given limits.
func New(limits Limits) *Validator {
	return &Validator{limits: limits.withDefaults()}
}

// Validate runs all rules against the candidate. Structural shape failures
// short-circuit: business rules are only evaluated on well-shaped
// candidates.
func (v *Validator) Validate(candidate *catalog.LearningItem, vctx Context) Result {
	if shape := v.checkShape(candidate, vctx); len(shape) > 0 {
		return Result{Violations: shape}
	}

	var violations []Violation
	violations = append(violations, v.checkRomanization(candidate, vctx)...)
	violations = append(violations, v.checkLevelOrder(candidate, vctx)...)
	violations = append(violations, v.checkGranularity(candidate)...)
	return Result{Violations: violations}
}

func (v *Validator) checkShape(c *catalog.LearningItem, vctx Context) []Violation {
	var out []Violation

	if strings.TrimSpace(c.TargetItem) == "" {
		out = append(out, Violation{RuleShape, "target_item", "must be non-empty"})
	}
	if strings.TrimSpace(c.Definition) == "" {
		out = append(out, Violation{RuleShape, "definition", "must be non-empty"})
	}
	if c.Language != vctx.Language {
		out = append(out, Violation{RuleShape, "language",
			fmt.Sprintf("expected %q, got %q", vctx.Language, c.Language)})
	}
	if c.Category != vctx.Category {
		out = append(out, Violation{RuleShape, "category",
			fmt.Sprintf("expected %q, got %q", vctx.Category, c.Category)})
	}

	n := len(c.Examples)
	if n < v.limits.MinExamples || n > v.limits.MaxExamples {
		out = append(out, Violation{RuleShape, "examples",
			fmt.Sprintf("need %d to %d examples, got %d", v.limits.MinExamples, v.limits.MaxExamples, n)})
	}
	for i, ex := range c.Examples {
		if strings.TrimSpace(ex) == "" {
			out = append(out, Violation{RuleShape, fmt.Sprintf("examples[%d]", i), "must be non-empty"})
		}
	}

	if strings.TrimSpace(c.LevelMin) == "" {
		out = append(out, Violation{RuleShape, "level_min", "must be non-empty"})
	}
	if strings.TrimSpace(c.LevelMax) == "" {
		out = append(out, Violation{RuleShape, "level_max", "must be non-empty"})
	}

	return out
}

func (v *Validator) checkRomanization(c *catalog.LearningItem, vctx Context) []Violation {
	cap := language.ForCode(string(vctx.Language))
	if cap.RequiresRomanization() && strings.TrimSpace(c.Romanization) == "" {
		return []Violation{{RuleRomanization, "romanization",
			fmt.Sprintf("required for language %q", vctx.Language)}}
	}
	return nil
}

func (v *Validator) checkLevelOrder(c *catalog.LearningItem, vctx Context) []Violation {
	system, err := language.LevelSystemByName(vctx.LevelSystem)
	if err != nil {
		return []Violation{{RuleLevelOrder, "level_system", err.Error()}}
	}
	cmp, err := system.Compare(c.LevelMin, c.LevelMax)
	if err != nil {
		return []Violation{{RuleLevelOrder, "level_min", err.Error()}}
	}
	if cmp > 0 {
		return []Violation{{RuleLevelOrder, "level_min",
			fmt.Sprintf("%s is above %s on the %s scale", c.LevelMin, c.LevelMax, system.Name)}}
	}
	return nil
}

func (v *Validator) checkGranularity(c *catalog.LearningItem) []Violation {
	if n := utf8.RuneCountInString(c.Definition); n > v.limits.MaxDefinitionRunes {
		return []Violation{{RuleGranularity, "definition",
			fmt.Sprintf("definition is %d runes, ceiling is %d; split bundled rules into separate items", n, v.limits.MaxDefinitionRunes)}}
	}
	return nil
}
