// Package generation asks a language model for replacement questions.
package generation

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/llm"
	"github.com/moldovancsaba/amanoba-sub006/internal/prompts"
	"github.com/moldovancsaba/amanoba-sub006/internal/retry"
	"github.com/moldovancsaba/amanoba-sub006/internal/schemas"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

const (
	promptFile = "generation.json"
	promptKey  = "generate-candidates"
)

// maxExistingInPrompt bounds how many existing texts are listed in the prompt.
const maxExistingInPrompt = 200

// Options configures a Generator.
type Options struct {
	Tier   llm.ModelTier
	Rules  evaluation.Rules
	Retry  retry.Policy
	Logger *zap.Logger
}

// Generator produces candidates through an llm.Client.
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
	rules  evaluation.Rules
	policy retry.Policy
	logger *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client, opts Options) *Generator {
	g := &Generator{
		client: client,
		tier:   opts.Tier,
		rules:  opts.Rules,
		policy: opts.Retry,
		logger: opts.Logger,
	}
	if g.tier == "" {
		g.tier = llm.TierStandard
	}
	if g.policy.MaxAttempts == 0 {
		g.policy = retry.DefaultPolicy()
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

type response struct {
	Candidates []types.Candidate `json:"candidates"`
}

// Generate returns at most req.Count candidates in the order the model produced them.
func (g *Generator) Generate(ctx context.Context, req types.GenerationRequest) ([]types.Candidate, error) {
	prompt, err := BuildPrompt(req, g.rules)
	if err != nil {
		return nil, &Error{Message: "failed to build prompt", Cause: err}
	}

	raw, err := retry.Value(ctx, g.policy, "generate candidates for "+req.ItemID, func(ctx context.Context) (string, error) {
		out, err := g.client.GenerateJSON(ctx, prompt, g.tier)
		if err != nil {
			return "", &CallError{Cause: err}
		}
		return out, nil
	})
	if err != nil {
		return nil, &Error{Message: "model call failed", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.Candidates, []byte(cleaned)); err != nil {
		return nil, &Error{Message: "response does not match candidate schema", Cause: err}
	}

	var resp response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &Error{Message: "failed to parse candidates", Cause: err}
	}

	candidates := resp.Candidates
	if req.Count > 0 && len(candidates) > req.Count {
		candidates = candidates[:req.Count]
	}

	g.logger.Debug("candidates generated",
		zap.String("item_id", req.ItemID),
		zap.Int("count", len(candidates)))

	return candidates, nil
}

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(req types.GenerationRequest, rules evaluation.Rules) (string, error) {
	existing := req.ExistingTexts
	if len(existing) > maxExistingInPrompt {
		existing = existing[:maxExistingInPrompt]
	}
	var list strings.Builder
	for _, text := range existing {
		list.WriteString("- ")
		list.WriteString(text)
		list.WriteString("\n")
	}
	if list.Len() == 0 {
		list.WriteString("(none)\n")
	}

	language := req.Language
	if language == "" {
		language = "en"
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	return prompts.Render(promptFile, promptKey, promptData{
		ScopeID:         req.ScopeID,
		LessonOrdinal:   req.LessonOrdinal,
		LessonTitle:     req.LessonTitle,
		LessonBody:      req.LessonBody,
		Language:        language,
		OriginalText:    req.Original.Text,
		OriginalOptions: strings.Join(req.Original.Options, " | "),
		ExistingTexts:   strings.TrimRight(list.String(), "\n"),
		Count:           count,
		MinTextLength:   rules.MinTextLength,
		MinOptionLength: rules.MinOptionLength,
		Seed:            req.Seed,
	})
}

// promptData fills the generate-candidates template.
type promptData struct {
	ScopeID         string
	LessonOrdinal   int
	LessonTitle     string
	LessonBody      string
	Language        string
	OriginalText    string
	OriginalOptions string
	ExistingTexts   string
	Count           int
	MinTextLength   int
	MinOptionLength int
	Seed            int64
}
