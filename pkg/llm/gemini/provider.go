package gemini

import (
	"context"
	"fmt"
	"strings"

	"growny-ai-be/pkg/llm"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiProvider) model(options *llm.Options) *genai.GenerativeModel {
	name := g.modelName
	if options.Model != "" {
		name = options.Model
	}
	m := g.client.GenerativeModel(name)
	m.SetTemperature(float32(options.Temperature))
	if options.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(options.MaxTokens))
	}
	if options.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	turn, err := splitHistory(history)
	if err != nil {
		return "", err
	}

	m := g.model(llm.Resolve(opts...))
	m.SystemInstruction = turn.system

	cs := m.StartChat()
	cs.History = turn.past

	resp, err := cs.SendMessage(ctx, genai.Text(turn.last))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(resp)
}

// chatTurn is a history ready for a genai chat session: the last message is sent,
// the rest becomes session history, system messages become the instruction.
type chatTurn struct {
	system *genai.Content
	past   []*genai.Content
	last   string
}

func splitHistory(history []llm.Message) (*chatTurn, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("empty chat history")
	}

	turn := &chatTurn{last: history[len(history)-1].Content}
	for _, msg := range history[:len(history)-1] {
		switch msg.Role {
		case llm.RoleSystem:
			turn.system = genai.NewUserContent(genai.Text(msg.Content))
		case llm.RoleModel, llm.RoleAssistant:
			turn.past = append(turn.past, &genai.Content{Role: llm.RoleModel, Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turn.past = append(turn.past, &genai.Content{Role: llm.RoleUser, Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return turn, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	m := g.model(llm.Resolve(opts...))
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiProvider) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates or content")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("response has no text parts")
	}
	return sb.String(), nil
}
