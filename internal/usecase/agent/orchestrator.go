// Package agent runs one assistant turn: intent detection, then a tool call,
// retrieval over the user's mail, or a direct answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/metrics"
)

// DefaultSystemPrompt opens every intent detection prompt.
const DefaultSystemPrompt = `You are an AI assistant helping students manage their academic inbox.
You have access to Gmail, Google Calendar, Google Classroom, and Google Drive.

Your capabilities:
- Fetch and search emails
- Create calendar events
- List assignments
- Search files in Drive
- Semantic email search using RAG

When the user asks to perform an action, use the appropriate tool.
Be helpful, concise, and action-oriented.`

// DefaultRetrievalTopK is the number of mails handed to the final generation as context.
const DefaultRetrievalTopK = 3

// DefaultRetrievalKeywords trigger retrieval when the backend picked no tool.
var DefaultRetrievalKeywords = []string{
	"find",
	"search",
	"show me",
	"look for",
	"emails about",
	"mentioned",
	"discussed",
	"related to",
}

const summarizeInstruction = "Summarize the results in a natural way"

const (
	modeSync   = "sync"
	modeStream = "stream"
)

// Config tunes the turn pipeline. Zero values fall back to the defaults.
type Config struct {
	SystemPrompt      string
	RetrievalKeywords []string
	RetrievalTopK     int
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if len(c.RetrievalKeywords) == 0 {
		c.RetrievalKeywords = DefaultRetrievalKeywords
	}
	keywords := make([]string, 0, len(c.RetrievalKeywords))
	for _, k := range c.RetrievalKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	c.RetrievalKeywords = keywords
	if c.RetrievalTopK <= 0 {
		c.RetrievalTopK = DefaultRetrievalTopK
	}
	return c
}

// Orchestrator answers conversation turns. It holds no per-turn state.
type Orchestrator struct {
	gen       domain.Generator
	stream    domain.StreamGenerator
	tools     Dispatcher
	catalog   Catalog
	retriever Retriever
	cfg       Config
}

// New creates an orchestrator. gen should already be rate limited; when it also
// implements domain.StreamGenerator, StreamTurn streams the final answer.
// retriever may be nil, which disables the retrieval path.
func New(gen domain.Generator, tools Dispatcher, catalog Catalog, retriever Retriever, cfg Config) *Orchestrator {
	o := &Orchestrator{
		gen:       gen,
		tools:     tools,
		catalog:   catalog,
		retriever: retriever,
		cfg:       cfg.withDefaults(),
	}
	if sg, ok := gen.(domain.StreamGenerator); ok {
		o.stream = sg
	}
	return o
}

// plan is the decided synthesis step of a turn.
type plan struct {
	messages []domain.Message
	reply    chat.Reply
}

// RunTurn answers the conversation. Faults, panics included, become an apology
// reply; it never fails.
func (o *Orchestrator) RunTurn(ctx context.Context, userID string, conv []domain.Message) (reply chat.Reply) {
	defer o.recoverTurn(ctx, modeSync, &reply)

	p, err := o.decide(ctx, userID, conv)
	if err != nil {
		return o.fail(ctx, modeSync, err)
	}

	text, err := o.gen.Generate(ctx, p.messages)
	if err != nil {
		reply = o.fail(ctx, modeSync, err)
		reply.ToolCalls = p.reply.ToolCalls
		return reply
	}

	p.reply.Text = text
	metrics.AgentTurnsTotal.WithLabelValues(string(p.reply.Path), modeSync).Inc()
	return p.reply
}

// StreamTurn is RunTurn with the final answer forwarded chunk by chunk to emit.
// A failing emit stops the stream and cancels the backend call.
func (o *Orchestrator) StreamTurn(
	ctx context.Context, userID string, conv []domain.Message, emit func(chunk string) error,
) (reply chat.Reply) {
	defer o.recoverTurn(ctx, modeStream, &reply)

	p, err := o.decide(ctx, userID, conv)
	if err != nil {
		return o.fail(ctx, modeStream, err)
	}

	var text strings.Builder
	for chunk, err := range o.generateStream(ctx, p.messages) {
		if err != nil {
			reply = o.fail(ctx, modeStream, err)
			reply.ToolCalls = p.reply.ToolCalls
			return reply
		}
		if chunk == "" {
			continue
		}
		text.WriteString(chunk)
		if err := emit(chunk); err != nil {
			logger.FromContext(ctx).Info("Stream consumer gone", zap.Error(err))
			break
		}
	}

	p.reply.Text = text.String()
	metrics.AgentTurnsTotal.WithLabelValues(string(p.reply.Path), modeStream).Inc()
	return p.reply
}

func (o *Orchestrator) generateStream(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	if o.stream != nil {
		return o.stream.GenerateStream(ctx, messages)
	}
	return func(yield func(string, error) bool) {
		text, err := o.gen.Generate(ctx, messages)
		if err != nil {
			yield("", err)
			return
		}
		yield(text, nil)
	}
}

// decide runs intent detection and any tool or retrieval work, and returns the
// messages for the final generation.
func (o *Orchestrator) decide(ctx context.Context, userID string, conv []domain.Message) (plan, error) {
	utterance, ok := domain.LastUserMessage(conv)
	if !ok || strings.TrimSpace(utterance) == "" {
		return plan{}, domain.ErrEmptyConversation
	}
	log := logger.FromContext(ctx)

	intent, err := o.gen.GenerateWithTools(ctx, buildPrompt(o.cfg.SystemPrompt, conv), o.catalog.Declarations())
	if err != nil {
		return plan{}, fmt.Errorf("detect intent: %w", err)
	}

	if intent.HasCall() {
		call := intent.Call
		args := call.Args
		if args == nil {
			args = map[string]any{}
		}
		res := o.tools.Dispatch(ctx, userID, call.Name, args)
		log.Info("Tool dispatched",
			zap.String("tool", call.Name),
			zap.Bool("success", res.Success),
		)

		return plan{
			messages: append(slices.Clone(conv),
				domain.Message{Role: domain.RoleAssistant, Content: narrate(call.Name, res.Success, res.Data, res.Error)},
				domain.Message{Role: domain.RoleUser, Content: summarizeInstruction},
			),
			reply: chat.Reply{
				ToolCalls: []chat.ToolCall{{Tool: call.Name, Params: args, Result: res}},
				Path:      chat.PathTool,
			},
		}, nil
	}

	if o.retriever != nil && o.wantsRetrieval(utterance) {
		results, err := o.retriever.Query(ctx, userID, utterance, o.cfg.RetrievalTopK)
		if err != nil {
			return plan{}, fmt.Errorf("retrieve: %w", err)
		}
		log.Debug("Retrieval finished", zap.Int("results", len(results)))

		if len(results) > 0 {
			return plan{
				messages: append(slices.Clone(conv),
					domain.Message{Role: domain.RoleSystem, Content: retrievalContext(results)}),
				reply: chat.Reply{ToolCalls: []chat.ToolCall{}, RetrievalUsed: true, Path: chat.PathRetrieval},
			}, nil
		}
	}

	return plan{
		messages: conv,
		reply:    chat.Reply{ToolCalls: []chat.ToolCall{}, Path: chat.PathDirect},
	}, nil
}

func (o *Orchestrator) wantsRetrieval(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, k := range o.cfg.RetrievalKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) fail(ctx context.Context, mode string, err error) chat.Reply {
	logger.FromContext(ctx).Warn("Turn failed", zap.String("mode", mode), zap.Error(err))
	metrics.AgentTurnsTotal.WithLabelValues(string(chat.PathError), mode).Inc()
	return chat.ErrorReply(err)
}

// recoverTurn turns a panic anywhere in the turn into the apology reply.
func (o *Orchestrator) recoverTurn(ctx context.Context, mode string, reply *chat.Reply) {
	if r := recover(); r != nil {
		*reply = o.fail(ctx, mode, fmt.Errorf("turn panicked: %v", r))
	}
}

// buildPrompt renders the system prompt and the conversation as one text prompt.
func buildPrompt(system string, conv []domain.Message) string {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nConversation:\n")
	for i, m := range conv {
		if i > 0 {
			b.WriteByte('\n')
		}
		if m.Role == domain.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

func narrate(name string, success bool, data any, errText string) string {
	if !success {
		return fmt.Sprintf("I executed %s and it failed: %s", name, errText)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", data))
	}
	return fmt.Sprintf("I executed %s and got: %s", name, raw)
}

func retrievalContext(results []result.Result) string {
	parts := make([]string, len(results))
	for i := range results {
		r := &results[i]
		parts[i] = fmt.Sprintf("Email from %s: %s\n%s (similarity: %.2f)",
			r.Field(domdoc.FieldFrom), r.Field(domdoc.FieldSubject), r.Field(domdoc.FieldBody), r.Similarity())
	}
	return "Context from user's emails:\n" + strings.Join(parts, "\n\n")
}
