// Package types provides type definitions for structured data used throughout the content sweep system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"slices"
	"time"
)

// Patchable field names, in the order they are reported and compared.
const (
	FieldText         = "text"
	FieldOptions      = "options"
	FieldCorrectIndex = "correct_index"
	FieldDifficulty   = "difficulty"
	FieldCategory     = "category"
	FieldType         = "type"
	FieldTags         = "tags"
	FieldActive       = "active"
)

// Item is a single multiple-choice quiz question in the corpus.
type Item struct {
	ID            string    `json:"id"`
	ScopeID       string    `json:"scope_id"` // Course the item belongs to
	LessonID      string    `json:"lesson_id,omitempty"`
	LessonOrdinal int       `json:"lesson_ordinal,omitempty"`
	Language      string    `json:"language,omitempty"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectIndex  int       `json:"correct_index"`
	Difficulty    string    `json:"difficulty,omitempty"`
	Category      string    `json:"category,omitempty"`
	Type          string    `json:"type,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the item so callers can mutate slices safely.
func (it Item) Clone() Item {
	out := it
	out.Options = slices.Clone(it.Options)
	out.Tags = slices.Clone(it.Tags)
	return out
}

// ItemPatch is a typed partial update. A nil field means "leave unchanged".
type ItemPatch struct {
	Text         *string   `json:"text,omitempty"`
	Options      *[]string `json:"options,omitempty"`
	CorrectIndex *int      `json:"correct_index,omitempty"`
	Difficulty   *string   `json:"difficulty,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Type         *string   `json:"type,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Active       *bool     `json:"active,omitempty"`
}

// FieldMismatch describes a patched field whose stored value differs from the requested one.
type FieldMismatch struct {
	Field string `json:"field"`
	Want  any    `json:"want"`
	Got   any    `json:"got"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the names of the fields set on the patch in a stable order.
func (p ItemPatch) Fields() []string {
	var fields []string
	if p.Text != nil {
		fields = append(fields, FieldText)
	}
	if p.Options != nil {
		fields = append(fields, FieldOptions)
	}
	if p.CorrectIndex != nil {
		fields = append(fields, FieldCorrectIndex)
	}
	if p.Difficulty != nil {
		fields = append(fields, FieldDifficulty)
	}
	if p.Category != nil {
		fields = append(fields, FieldCategory)
	}
	if p.Type != nil {
		fields = append(fields, FieldType)
	}
	if p.Tags != nil {
		fields = append(fields, FieldTags)
	}
	if p.Active != nil {
		fields = append(fields, FieldActive)
	}
	return fields
}

// Merge returns a patch containing the fields of both patches.
// Fields set on other take precedence.
func (p ItemPatch) Merge(other ItemPatch) ItemPatch {
	out := p
	if other.Text != nil {
		out.Text = other.Text
	}
	if other.Options != nil {
		out.Options = other.Options
	}
	if other.CorrectIndex != nil {
		out.CorrectIndex = other.CorrectIndex
	}
	if other.Difficulty != nil {
		out.Difficulty = other.Difficulty
	}
	if other.Category != nil {
		out.Category = other.Category
	}
	if other.Type != nil {
		out.Type = other.Type
	}
	if other.Tags != nil {
		out.Tags = other.Tags
	}
	if other.Active != nil {
		out.Active = other.Active
	}
	return out
}

// ApplyTo returns a copy of item with the patch applied. UpdatedAt is left untouched;
// refreshing it is the store's job.
func (p ItemPatch) ApplyTo(item Item) Item {
	out := item.Clone()
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Options != nil {
		out.Options = slices.Clone(*p.Options)
	}
	if p.CorrectIndex != nil {
		out.CorrectIndex = *p.CorrectIndex
	}
	if p.Difficulty != nil {
		out.Difficulty = *p.Difficulty
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(*p.Tags)
	}
	if p.Active != nil {
		out.Active = *p.Active
	}
	return out
}

// Mismatches compares every field set on the patch against item.
// Slice comparison is length- and order-sensitive.
func (p ItemPatch) Mismatches(item Item) []FieldMismatch {
	var out []FieldMismatch
	if p.Text != nil && *p.Text != item.Text {
		out = append(out, FieldMismatch{Field: FieldText, Want: *p.Text, Got: item.Text})
	}
	if p.Options != nil && !slices.Equal(*p.Options, item.Options) {
		out = append(out, FieldMismatch{Field: FieldOptions, Want: *p.Options, Got: item.Options})
	}
	if p.CorrectIndex != nil && *p.CorrectIndex != item.CorrectIndex {
		out = append(out, FieldMismatch{Field: FieldCorrectIndex, Want: *p.CorrectIndex, Got: item.CorrectIndex})
	}
	if p.Difficulty != nil && *p.Difficulty != item.Difficulty {
		out = append(out, FieldMismatch{Field: FieldDifficulty, Want: *p.Difficulty, Got: item.Difficulty})
	}
	if p.Category != nil && *p.Category != item.Category {
		out = append(out, FieldMismatch{Field: FieldCategory, Want: *p.Category, Got: item.Category})
	}
	if p.Type != nil && *p.Type != item.Type {
		out = append(out, FieldMismatch{Field: FieldType, Want: *p.Type, Got: item.Type})
	}
	if p.Tags != nil && !slices.Equal(*p.Tags, item.Tags) {
		out = append(out, FieldMismatch{Field: FieldTags, Want: *p.Tags, Got: item.Tags})
	}
	if p.Active != nil && *p.Active != item.Active {
		out = append(out, FieldMismatch{Field: FieldActive, Want: *p.Active, Got: item.Active})
	}
	return out
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// StringsPtr returns a pointer to a copy of values.
func StringsPtr(values []string) *[]string {
	cp := slices.Clone(values)
	if cp == nil {
		cp = []string{}
	}
	return &cp
}
