// Package chat talks to the "Tatu" AI personal trainer through an OpenAI compatible chat completions API.
//
// The gateway never returns errors. Every failure is logged and replaced with a fixed fallback so that a broken
// upstream never reaches the workout state.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/singleflight"
)

const (
	// FallbackReply replaces the assistant reply whenever the completion fails.
	FallbackReply = "Erro ao conectar com o Tatu IA."

	persona = "Você é um personal trainer de elite chamado Tatu. Seja motivador, técnico e direto. " +
		"Seu tom é profissional mas amigável, focado em ajudar o usuário a extrair o máximo de cada treino."

	fallbackMotivation = "Foco no progresso!"

	// maxHistory bounds the transcript sent upstream.
	maxHistory     = 20
	maxAdviceTips  = 3
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a chat transcript.
type Turn struct {
	Role Role
	Text string
}

// Advice is a short list of tips for a workout.
type Advice struct {
	Tips       []string `json:"tips"`
	Motivation string   `json:"motivation"`
}

// FallbackAdvice is shown when advice cannot be generated.
func FallbackAdvice() Advice {
	return Advice{
		Tips:       []string{"Mantenha a constância", "Beba água", "Descanse bem"},
		Motivation: fallbackMotivation,
	}
}

type Config struct {
	// APIKey disables the gateway when empty.
	APIKey string
	// BaseURL overrides the API endpoint, for example to use a compatible provider.
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Gateway struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
	advice  singleflight.Group
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	g := &Gateway{
		client:  nil,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		advice:  singleflight.Group{},
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if cfg.APIKey == "" {
		return g
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The member is waiting on the response, so a failure falls back immediately instead of retrying.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	g.client = &client
	return g
}

// Enabled reports whether an API key is configured.
func (g *Gateway) Enabled() bool {
	return g.client != nil
}

func (g *Gateway) complete(
	ctx context.Context,
	operation string,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, error) {
	if g.client == nil {
		return "", errNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{ //nolint:exhaustruct // defaults
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion",
		slog.String("operation", operation),
		slog.Duration("duration", time.Since(start)),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens))

	if len(completion.Choices) == 0 {
		return "", errEmptyResponse
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyResponse
	}
	return content, nil
}

func (g *Gateway) logFailure(ctx context.Context, operation string, err error) {
	kind := classify(err)
	level := slog.LevelWarn
	if kind == failureNotConfigured {
		level = slog.LevelDebug
	}
	g.logger.LogAttrs(ctx, level, "chat request failed",
		slog.String("operation", operation),
		slog.String("kind", string(kind)),
		errors.SlogError(err))
}

// SendMessage returns the assistant reply to message given the earlier turns. It returns FallbackReply on any
// failure.
func (g *Gateway) SendMessage(ctx context.Context, history []Turn, message string) string {
	const operation = "send_message"
	message = strings.TrimSpace(message)
	if message == "" {
		return FallbackReply
	}

	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2) //nolint:mnd // persona and message
	messages = append(messages, openai.SystemMessage(persona))
	for _, turn := range history {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	reply, err := g.complete(ctx, operation, messages)
	if err != nil {
		g.logFailure(ctx, operation, err)
		return FallbackReply
	}
	return reply
}

// WorkoutAdvice asks for tips for the workout titled routine with the member's goal. Concurrent requests for the
// same routine and goal share one upstream call.
func (g *Gateway) WorkoutAdvice(ctx context.Context, routine, goal string) Advice {
	key := routine + "\x00" + goal
	v, _, _ := g.advice.Do(key, func() (any, error) {
		// Detached so that one caller leaving does not fail the others waiting on the same call.
		return g.workoutAdvice(context.WithoutCancel(ctx), routine, goal), nil
	})
	advice, _ := v.(Advice)
	return Advice{Tips: slices.Clone(advice.Tips), Motivation: advice.Motivation}
}

func (g *Gateway) workoutAdvice(ctx context.Context, routine, goal string) Advice {
	const operation = "workout_advice"
	prompt := fmt.Sprintf("Gere %d dicas curtas para o treino %q com foco em %q. "+
		`Responda somente com JSON no formato {"tips": ["..."], "motivation": "..."}.`,
		maxAdviceTips, routine, goal)

	reply, err := g.complete(ctx, operation, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(persona),
		openai.UserMessage(prompt),
	})
	if err == nil {
		var advice Advice
		if advice, err = parseAdvice(reply); err == nil {
			return advice
		}
	}
	g.logFailure(ctx, operation, err)
	return FallbackAdvice()
}

// parseAdvice decodes the JSON object in reply. Models often wrap it in a Markdown code fence or add prose around
// it so only the outermost braces are decoded.
func parseAdvice(reply string) (Advice, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Advice{}, errors.Wrap(errMalformed, "no JSON object",
			slog.String("reply", reply))
	}
	var advice Advice
	if err := json.Unmarshal([]byte(reply[start:end+1]), &advice); err != nil {
		return Advice{}, errors.Wrap(errors.Join(errMalformed, err), "decode advice")
	}

	tips := make([]string, 0, maxAdviceTips)
	for _, tip := range advice.Tips {
		if tip = strings.TrimSpace(tip); tip != "" && len(tips) < maxAdviceTips {
			tips = append(tips, tip)
		}
	}
	if len(tips) == 0 {
		return Advice{}, errors.Wrap(errMalformed, "no tips")
	}
	advice.Tips = tips
	if advice.Motivation = strings.TrimSpace(advice.Motivation); advice.Motivation == "" {
		advice.Motivation = fallbackMotivation
	}
	return advice, nil
}
