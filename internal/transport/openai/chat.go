package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
)

// GeneratorConfig holds the chat backend settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// Generator is a chat completion backend with function calling and streaming.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat backend.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      orNop(cfg.Logger),
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(messages))
	if err != nil {
		return "", parseAPIError("chat", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrGenerationProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateWithTools implements domain.Generator. Only the first tool call is honoured.
func (g *Generator) GenerateWithTools(
	ctx context.Context, prompt string, decls []domain.FunctionDeclaration,
) (domain.GenerateResult, error) {
	req := g.request([]domain.Message{{Role: domain.RoleUser, Content: prompt}})
	for _, d := range decls {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.GenerateResult{}, parseAPIError("chat", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerateResult{}, fmt.Errorf("empty chat response: %w", domain.ErrGenerationProviderError)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return domain.GenerateResult{Text: msg.Content}, nil
	}
	if len(msg.ToolCalls) > 1 {
		g.logger.Debug("Extra tool calls ignored", zap.Int("count", len(msg.ToolCalls)))
	}

	fn := msg.ToolCalls[0].Function
	args, err := decodeArguments(fn.Arguments)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	return domain.GenerateResult{Call: &domain.FunctionCall{Name: fn.Name, Args: args}}, nil
}

// GenerateStream implements domain.StreamGenerator on the streaming chat endpoint.
func (g *Generator) GenerateStream(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := g.request(messages)
		req.Stream = true

		stream, err := g.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", parseAPIError("chat stream", err, domain.ErrGenerationProviderError))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", parseAPIError("chat stream", err, domain.ErrGenerationProviderError))
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (g *Generator) request(messages []domain.Message) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: g.temperature,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Content}
	}
	return req
}

func chatRole(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	}
	return openai.ChatMessageRoleUser
}

func decodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %v: %w", err, domain.ErrGenerationProviderError)
	}
	return args, nil
}
