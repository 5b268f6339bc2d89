package evaluation

import (
	"fmt"
	"strings"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// classificationFields is the order in which classification values are checked.
var classificationFields = []string{types.FieldDifficulty, types.FieldCategory, types.FieldType, types.FieldTags}

// Evaluate runs every rule over item. It never fails: rule breaches are returned
// as violations and safe corrections are staged in the auto-patch.
// Checks run against the normalized text and options, so an item whose only
// defect is whitespace produces an auto-patch and no violations.
func Evaluate(item types.Item, rules Rules) types.EvaluationResult {
	result := types.EvaluationResult{
		ItemID:     item.ID,
		Violations: []types.Violation{},
	}

	text := NormalizeWhitespace(item.Text)
	if text != item.Text {
		result.AutoPatch.Text = types.StringPtr(text)
	}

	options, optionsChanged := NormalizeOptions(item.Options)
	if optionsChanged {
		result.AutoPatch.Options = types.StringsPtr(options)
	}

	result.Violations = append(result.Violations, checkText(text, rules)...)
	result.Violations = append(result.Violations, checkClassification(item, rules)...)
	result.Violations = append(result.Violations, checkOptions(options, rules)...)

	if item.CorrectIndex < 0 || item.CorrectIndex >= len(options) {
		result.Violations = append(result.Violations, violation(
			CodeCorrectIndexOutOfRange, types.SeverityError,
			fmt.Sprintf("Correct option index %d does not reference one of %d options", item.CorrectIndex, len(options)),
			types.FieldCorrectIndex, types.FieldOptions,
		))
	}

	return result
}

func checkText(text string, rules Rules) []types.Violation {
	var out []types.Violation

	if n := runeLen(text); n < rules.MinTextLength {
		out = append(out, violation(
			CodeTextTooShort, types.SeverityError,
			fmt.Sprintf("Question text has %d characters, minimum is %d", n, rules.MinTextLength),
			types.FieldText,
		))
	}

	if phrase := findBannedPhrase(text, rules.BannedPhrases); phrase != "" {
		out = append(out, violation(
			CodeSelfReferentialPhrase, types.SeverityWarning,
			fmt.Sprintf("Question text refers to its own course material: %q", phrase),
			types.FieldText,
		))
	}

	return out
}

// findBannedPhrase returns the first banned phrase contained in text (case-insensitive).
func findBannedPhrase(text string, phrases []string) string {
	lowered := strings.ToLower(text)
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" {
			continue
		}
		if strings.Contains(lowered, normalized) {
			return phrase
		}
	}
	return ""
}

func checkClassification(item types.Item, rules Rules) []types.Violation {
	if len(rules.ForbiddenValues) == 0 {
		return nil
	}

	var out []types.Violation
	for _, field := range classificationFields {
		forbidden := rules.ForbiddenValues[field]
		if len(forbidden) == 0 {
			continue
		}
		for _, value := range classificationValues(item, field) {
			if containsFold(forbidden, value) {
				out = append(out, violation(
					CodeForbiddenClassification, types.SeverityError,
					fmt.Sprintf("Classification %s=%q is not allowed", field, value),
					field,
				))
			}
		}
	}
	return out
}

func classificationValues(item types.Item, field string) []string {
	switch field {
	case types.FieldDifficulty:
		return nonEmpty(item.Difficulty)
	case types.FieldCategory:
		return nonEmpty(item.Category)
	case types.FieldType:
		return nonEmpty(item.Type)
	case types.FieldTags:
		return item.Tags
	}
	return nil
}

func checkOptions(options []string, rules Rules) []types.Violation {
	var out []types.Violation

	seen := make(map[string]int, len(options))
	var dupes []string
	for i, opt := range options {
		key := strings.ToLower(opt)
		if first, ok := seen[key]; ok {
			dupes = append(dupes, fmt.Sprintf("%d=%d", first, i))
			continue
		}
		seen[key] = i
	}
	if len(dupes) > 0 {
		out = append(out, violation(
			CodeDuplicateOptions, types.SeverityError,
			fmt.Sprintf("Options are not distinct after normalization (indexes %s)", strings.Join(dupes, ", ")),
			types.FieldOptions,
		))
	}

	for i, opt := range options {
		if n := runeLen(opt); n < rules.MinOptionLength {
			out = append(out, violation(
				CodeOptionTooShort, types.SeverityWarning,
				fmt.Sprintf("Option %d has %d characters, minimum is %d", i, n, rules.MinOptionLength),
				types.FieldOptions,
			))
		}
	}

	return out
}

func violation(code, severity, message string, fields ...string) types.Violation {
	return types.Violation{
		Code:     code,
		Message:  message,
		Severity: severity,
		Fields:   fields,
		DocRef:   DocRef(code),
	}
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
