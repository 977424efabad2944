package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	app_errors "leetmate/agent/internal/errors"
	"leetmate/agent/internal/model"
)

// Generation parameters are fixed: low temperature with bounded nucleus and
// top-k sampling, tuned for code explanation rather than creative output.
const (
	temperature float32 = 0.2
	topP        float32 = 0.9
	topK        float32 = 40

	// thinkingBudgetUnlimited lets the model think as long as it wants when
	// thoughts are requested.
	thinkingBudgetUnlimited int32 = -1
)

type GeminiClient struct {
	apiKey string
	model  string
}

func NewGeminiClient(modelID, apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: modelID}
}

// GenerateStream opens a fresh provider stream and forwards derived events
// to ch, closing it when the stream ends. Provider failures are classified
// (see MapProviderError) at the point the call is made and iterated, never
// deferred to the caller.
func (c *GeminiClient) GenerateStream(ctx context.Context, req *ChatRequest, ch chan<- model.StreamEvent) error {
	defer close(ch)

	if strings.TrimSpace(c.apiKey) == "" {
		return fmt.Errorf("%w: Gemini API key is not configured", app_errors.ErrAuth)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return MapProviderError(err)
	}

	contents := buildContents(req)
	cfg := c.generationConfig(req.Thinking)
	deriver := newEventDeriver(nil)

	for resp, err := range client.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
		if err != nil {
			return MapProviderError(err)
		}
		for _, part := range responseParts(resp) {
			ev, ok := deriver.derive(part.Text, part.Thought)
			if !ok {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// buildContents maps the prior history to role-tagged turns, in order,
// followed by the synthesized final user turn.
func buildContents(req *ChatRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := genai.Role(genai.RoleModel)
		if msg.IsUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(buildUserTurn(req), genai.RoleUser))
	return contents
}

func (c *GeminiClient) generationConfig(thinking bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
		TopP:        genai.Ptr(topP),
		TopK:        genai.Ptr(topK),
	}
	if thinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(thinkingBudgetUnlimited),
		}
	}
	return cfg
}

func responseParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}
