package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/campusagent/internal/domain"
)

// DefaultModel is used when the configuration names none.
const DefaultModel = "gemini-2.0-flash"

// GeneratorConfig holds the generation settings.
type GeneratorConfig struct {
	ClientConfig
	Model       string
	Temperature float32 // 0 keeps the model default
	Logger      *zap.Logger
}

// Generator is a Gemini backend with function calling and streaming.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a Gemini generator.
func NewGenerator(ctx context.Context, cfg *GeneratorConfig) (*Generator, error) {
	client, err := newClient(ctx, cfg.ClientConfig)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model, temperature: cfg.Temperature, logger: orNop(cfg.Logger)}, nil
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	contents, config := g.build(messages)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", wrapAPIError("gemini", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty gemini response: %w", domain.ErrGenerationProviderError)
	}
	return resp.Text(), nil
}

// GenerateWithTools implements domain.Generator. Only the first function call is honoured.
func (g *Generator) GenerateWithTools(
	ctx context.Context, prompt string, decls []domain.FunctionDeclaration,
) (domain.GenerateResult, error) {
	contents, config := g.build([]domain.Message{{Role: domain.RoleUser, Content: prompt}})
	if len(decls) > 0 {
		fns := make([]*genai.FunctionDeclaration, len(decls))
		for i, d := range decls {
			fns[i] = &genai.FunctionDeclaration{
				Name:                 d.Name,
				Description:          d.Description,
				ParametersJsonSchema: d.Parameters,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: fns}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return domain.GenerateResult{}, wrapAPIError("gemini", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Candidates) == 0 {
		return domain.GenerateResult{}, fmt.Errorf("empty gemini response: %w", domain.ErrGenerationProviderError)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		if len(calls) > 1 {
			g.logger.Debug("Extra function calls ignored", zap.Int("count", len(calls)))
		}
		args := calls[0].Args
		if args == nil {
			args = map[string]any{}
		}
		return domain.GenerateResult{Call: &domain.FunctionCall{Name: calls[0].Name, Args: args}}, nil
	}
	return domain.GenerateResult{Text: resp.Text()}, nil
}

// GenerateStream implements domain.StreamGenerator.
func (g *Generator) GenerateStream(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, config := g.build(messages)

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				yield("", wrapAPIError("gemini stream", err, domain.ErrGenerationProviderError))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// HealthCheck lists one model to verify the key and endpoint.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// build splits system messages into the system instruction; assistant turns become model turns.
func (g *Generator) build(messages []domain.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if g.temperature > 0 {
		config.Temperature = genai.Ptr(g.temperature)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config
}
