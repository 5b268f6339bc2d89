// Package prompts holds the model prompt templates compiled into the binary.
// Each JSON file maps a prompt key to a text/template body.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

var (
	mu     sync.Mutex
	parsed = make(map[string]*template.Template)
)

// Lookup returns the template stored under key in file, parsing it on first use.
func Lookup(file, key string) (*template.Template, error) {
	id := file + "#" + key

	mu.Lock()
	defer mu.Unlock()
	if tmpl, ok := parsed[id]; ok {
		return tmpl, nil
	}

	data, err := promptFiles.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}
	var bodies map[string]string
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}
	body, ok := bodies[key]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found in %s", key, file)
	}

	tmpl, err := template.New(id).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", id, err)
	}
	parsed[id] = tmpl
	return tmpl, nil
}

// Render fills the prompt under key in file with data. A placeholder with no
// value is an error rather than an empty string.
func Render(file, key string, data any) (string, error) {
	tmpl, err := Lookup(file, key)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s#%s: %w", file, key, err)
	}
	return buf.String(), nil
}
