package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedSchemas(t *testing.T) {
	for _, name := range []string{RunState, ItemPatch, Candidates} {
		s, err := load(name)
		require.NoError(t, err, name)
		again, err := load(name)
		require.NoError(t, err)
		assert.Same(t, s, again, "schemas compile once")
	}

	err := Validate("missing.schema.json", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing.schema.json", loadErr.Name)
}

func TestValidate_RunState(t *testing.T) {
	valid := `{
		"cursor": {"cursor_item_id": "q-1", "cursor_updated_at": "2026-01-01T00:00:00Z"},
		"run_timestamp": "2026-01-02T10:00:00Z",
		"run_id": "5b1f0a4e-8c4b-4f1e-9d7a-2f3c4b5a6d7e",
		"agent": "sweeper",
		"notes": ["handover"]
	}`
	assert.NoError(t, Validate(RunState, []byte(valid)))

	noCursor := `{"run_timestamp": "2026-01-02T10:00:00Z", "run_id": "00000000-0000-0000-0000-000000000000", "notes": null}`
	assert.NoError(t, Validate(RunState, []byte(noCursor)))
}

func TestValidate_RunStateRejectsIncompleteCursor(t *testing.T) {
	doc := `{
		"cursor": {"cursor_item_id": "q-1"},
		"run_timestamp": "2026-01-02T10:00:00Z",
		"run_id": "5b1f0a4e-8c4b-4f1e-9d7a-2f3c4b5a6d7e"
	}`
	err := Validate(RunState, []byte(doc))
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, RunState, validationErr.Schema)
	assert.Contains(t, validationErr.Fields(), "cursor")
	assert.Contains(t, err.Error(), "cursor_updated_at")
}

func TestValidate_ItemPatch(t *testing.T) {
	assert.NoError(t, Validate(ItemPatch, []byte(`{"text": "New text", "correct_index": 1}`)))

	assert.Error(t, Validate(ItemPatch, []byte(`{}`)), "empty patch")
	assert.Error(t, Validate(ItemPatch, []byte(`{"updated_at": "2026-01-01T00:00:00Z"}`)), "unknown field")
	assert.Error(t, Validate(ItemPatch, []byte(`{"correct_index": "1"}`)), "wrong type")
}

func TestValidate_Candidates(t *testing.T) {
	valid := `{"candidates": [{"text": "Which port does HTTPS use?", "options": ["443", "80"], "correct_index": 0}]}`
	assert.NoError(t, Validate(Candidates, []byte(valid)))

	oneOption := `{"candidates": [{"text": "Which port?", "options": ["443"], "correct_index": 0}]}`
	assert.Error(t, Validate(Candidates, []byte(oneOption)))
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"active": false}`), 0644))

	assert.NoError(t, ValidateFile(ItemPatch, path))

	err := ValidateFile(ItemPatch, filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(ItemPatch, []byte(`{"text": `))
	require.Error(t, err)

	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))
}
