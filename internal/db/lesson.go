package db

import (
	"encoding/json"
	"fmt"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Lesson is the course material a quiz item is written against.
type Lesson struct {
	ID      string
	ScopeID string
	Ordinal int
	Title   string
	Body    string
}

func encodeArrays(item types.Item) (string, string, error) {
	options := item.Options
	if options == nil {
		options = []string{}
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	o, err := json.Marshal(options)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal options: %w", err)
	}
	t, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(o), string(t), nil
}
