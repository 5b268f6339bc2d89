package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// placeholder renders the n-th bind parameter of a dialect.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// patchAssignments builds the SET clause for the non-nil fields of patch.
// Array fields are encoded as JSON text followed by jsonCast. The returned
// args line up with the placeholders, starting at argNum.
func patchAssignments(patch types.ItemPatch, argNum int, ph placeholder, jsonCast string) ([]string, []any, error) {
	var sets []string
	var args []any

	addCast := func(column, cast string, value any) {
		sets = append(sets, fmt.Sprintf("%s = %s%s", column, ph(argNum), cast))
		args = append(args, value)
		argNum++
	}
	add := func(column string, value any) {
		addCast(column, "", value)
	}
	addJSON := func(column string, values []string) error {
		if values == nil {
			values = []string{}
		}
		encoded, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", column, err)
		}
		addCast(column, jsonCast, string(encoded))
		return nil
	}

	if patch.Text != nil {
		add("text", *patch.Text)
	}
	if patch.Options != nil {
		if err := addJSON("options", *patch.Options); err != nil {
			return nil, nil, err
		}
	}
	if patch.CorrectIndex != nil {
		add("correct_index", *patch.CorrectIndex)
	}
	if patch.Difficulty != nil {
		add("difficulty", *patch.Difficulty)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Tags != nil {
		if err := addJSON("tags", *patch.Tags); err != nil {
			return nil, nil, err
		}
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	return sets, args, nil
}

// listWhere returns the WHERE clause and args for a listing filter.
func listWhere(scopeID string, activeOnly bool, ph placeholder, activeTrue any) (string, []any) {
	var conds []string
	var args []any
	argNum := 1
	if scopeID != "" {
		conds = append(conds, "scope_id = "+ph(argNum))
		args = append(args, scopeID)
		argNum++
	}
	if activeOnly {
		conds = append(conds, "active = "+ph(argNum))
		args = append(args, activeTrue)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func decodeStrings(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
