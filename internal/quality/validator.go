// Package quality decides whether a generated replacement question is fit to
// be written to the corpus.
package quality

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Validator checks candidates against the structural constraints and the
// error-severity content rules.
type Validator struct {
	rules    evaluation.Rules
	validate *validator.Validate
}

// New creates a Validator using rules.
func New(rules evaluation.Rules) *Validator {
	return &Validator{rules: rules, validate: validator.New()}
}

// Validate returns a *RejectedError when the candidate is unusable.
func (v *Validator) Validate(_ context.Context, c types.Candidate, existingTexts []string) error {
	var reasons []string

	if err := v.validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				reasons = append(reasons, fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag()))
			}
		} else {
			reasons = append(reasons, err.Error())
		}
	}

	if c.CorrectIndex < 0 || c.CorrectIndex >= len(c.Options) {
		reasons = append(reasons, fmt.Sprintf("correct index %d out of range", c.CorrectIndex))
	}

	if hasMarkup(c.Text) {
		reasons = append(reasons, "text contains markup")
	}
	for i, opt := range c.Options {
		if hasMarkup(opt) {
			reasons = append(reasons, fmt.Sprintf("option %d contains markup", i))
		}
	}

	key := evaluation.NormalizeKey(c.Text)
	for _, existing := range existingTexts {
		if evaluation.NormalizeKey(existing) == key {
			reasons = append(reasons, "text already used in scope")
			break
		}
	}

	probe := types.Item{
		Text:         c.Text,
		Options:      c.Options,
		CorrectIndex: c.CorrectIndex,
	}
	for _, violation := range evaluation.Evaluate(probe, v.rules).Violations {
		if violation.Severity == types.SeverityError && violation.Code != evaluation.CodeCorrectIndexOutOfRange {
			reasons = append(reasons, violation.Code)
		}
	}

	if len(reasons) > 0 {
		return &RejectedError{Reasons: reasons}
	}
	return nil
}

// hasMarkup reports whether text parses to any HTML element.
func hasMarkup(text string) bool {
	if !strings.ContainsAny(text, "<&") {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return true
	}
	return doc.Find("body *").Length() > 0 || doc.Find("head *").Length() > 0
}
