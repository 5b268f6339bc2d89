package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const candidatePayload = `{"candidates": [{"text": "Which record maps a name to an IPv6 address?", "options": ["AAAA", "MX", "CNAME", "TXT"], "correct_index": 0}]}`

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare payload", candidatePayload, candidatePayload},
		{"json fence", "```json\n" + candidatePayload + "\n```", candidatePayload},
		{"untagged fence", "```\n" + candidatePayload + "\n```", candidatePayload},
		{"preamble", "Here are three new questions for lesson 4:\n\n" + candidatePayload, candidatePayload},
		{"preamble and fence", "Sure!\n```json\n" + candidatePayload + "\n```\nLet me know if you need more.", candidatePayload},
		{"trailing remark", candidatePayload + "\n\nAll options are distinct.", candidatePayload},
		{"bare array", `Result: [{"text": "Q?"}]`, `[{"text": "Q?"}]`},
		{
			"braces inside question text",
			`{"candidates": [{"text": "What does {} denote in a Go composite literal?"}]} done`,
			`{"candidates": [{"text": "What does {} denote in a Go composite literal?"}]}`,
		},
		{
			"escaped quotes",
			`{"text": "Which flag is \"-v\" short for?"}`,
			`{"text": "Which flag is \"-v\" short for?"}`,
		},
		{"no json", "I cannot help with that.", "I cannot help with that."},
		{"unterminated", `{"candidates": [`, `{"candidates": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractBalanced(`{"a": {"b": 1}} tail`, '{', '}'))
	assert.Equal(t, `[[1], [2]]`, extractBalanced(`[[1], [2]], [3]`, '[', ']'))
	assert.Equal(t, `{"s": "}"}`, extractBalanced(`{"s": "}"}`, '{', '}'))
	assert.Empty(t, extractBalanced("", '{', '}'))
	assert.Empty(t, extractBalanced("x{}", '{', '}'))
	assert.Empty(t, extractBalanced(`{"open": true`, '{', '}'))
}
