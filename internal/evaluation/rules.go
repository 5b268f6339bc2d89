package evaluation

// Violation codes
const (
	CodeTextTooShort            = "text_too_short"
	CodeSelfReferentialPhrase   = "self_referential_phrase"
	CodeForbiddenClassification = "forbidden_classification"
	CodeDuplicateOptions        = "duplicate_options"
	CodeOptionTooShort          = "option_too_short"
	CodeCorrectIndexOutOfRange  = "correct_index_out_of_range"
)

// docRefs points each code at the authoring guideline operators should read.
var docRefs = map[string]string{
	CodeTextTooShort:            "docs/quality-rules.md#text-too-short",
	CodeSelfReferentialPhrase:   "docs/quality-rules.md#self-referential-phrase",
	CodeForbiddenClassification: "docs/quality-rules.md#forbidden-classification",
	CodeDuplicateOptions:        "docs/quality-rules.md#duplicate-options",
	CodeOptionTooShort:          "docs/quality-rules.md#option-too-short",
	CodeCorrectIndexOutOfRange:  "docs/quality-rules.md#correct-index",
}

// Rules holds the tunable thresholds of the rule set.
type Rules struct {
	MinTextLength   int                 `json:"min_text_length" yaml:"min_text_length" validate:"gte=0"`
	MinOptionLength int                 `json:"min_option_length" yaml:"min_option_length" validate:"gte=0"`
	BannedPhrases   []string            `json:"banned_phrases" yaml:"banned_phrases"`
	ForbiddenValues map[string][]string `json:"forbidden_values" yaml:"forbidden_values"` // field name -> values
}

// DefaultRules returns the production rule thresholds.
func DefaultRules() Rules {
	return Rules{
		MinTextLength:   40,
		MinOptionLength: 3,
		BannedPhrases: []string{
			"this course",
			"this lesson",
			"in the lesson",
			"as mentioned above",
			"according to the course",
			"ebben a kurzusban",
			"ebben a leckében",
		},
		ForbiddenValues: map[string][]string{
			"type": {"recall"},
		},
	}
}

// DocRef returns the documentation anchor for a violation code.
func DocRef(code string) string {
	return docRefs[code]
}
