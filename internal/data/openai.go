package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"
)

const analysisSystemPrompt = `You are an assistant for a small design studio.
You read an unanswered client conversation and produce a short work report:
what the client wants, what is already agreed, and what needs an answer.
Respond with a JSON object: {"report": "<summary>", "confidence": <0-100>}.
Confidence reflects how certain you are that an answer can be composed from
the conversation and the studio's business information alone.`

const replySystemPrompt = `You are the studio owner's secretary answering a
client in the owner's voice. Be brief, warm and concrete. Use the business
information when the client asks about services or prices. Match the tone of
the owner's own messages when samples are given. Never invent prices or
deadlines that are not in the business information.
Respond with a JSON object: {"reply": "<text>", "confidence": <0-100>}.`

// unreadableFallbackReply is sent for review when the conversation carries
// an attachment the model could not read.
const unreadableFallbackReply = "Thanks for the file! I will take a look and get back to you shortly."

// aiGenerator implements the reply generation boundary on an OpenAI style
// chat completion API
type aiGenerator struct {
	client       *openai.Client
	model        string
	businessData string
	log          zerolog.Logger
}

// NewAIGenerator creates a generator against the configured endpoint. The
// business data file is optional; when missing the prompts simply omit it.
func NewAIGenerator(apiKey, baseURL, model, businessDataPath string) (repo.ReplyGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai api key is empty")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	businessData := ""
	if businessDataPath != "" {
		raw, err := os.ReadFile(businessDataPath)
		if err != nil {
			log := logging.Component("ai")
			log.Warn().Err(err).Str("path", businessDataPath).Msg("business data not loaded")
		} else {
			businessData = string(raw)
		}
	}

	return &aiGenerator{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		businessData: businessData,
		log:          logging.Component("ai"),
	}, nil
}

// Analyze summarizes the unanswered conversation into a work report with a
// base confidence
func (g *aiGenerator) Analyze(ctx context.Context, req repo.AnalysisRequest) (*repo.Analysis, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chat: %s\n\nUnanswered messages:\n%s\n", req.ChatTitle, req.Text)
	if g.businessData != "" {
		fmt.Fprintf(&sb, "\nBusiness information:\n%s\n", g.businessData)
	}

	content, err := g.complete(ctx, analysisSystemPrompt, sb.String())
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	var parsed struct {
		Report     string `json:"report"`
		Confidence int    `json:"confidence"`
	}
	if err := json.Unmarshal(extractJSON(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	g.log.Debug().Int("confidence", parsed.Confidence).Msg("analysis complete")
	return &repo.Analysis{Report: parsed.Report, Confidence: parsed.Confidence}, nil
}

// GenerateReply produces the candidate reply text. Unreadable attachments
// short-circuit to a fixed acknowledgement with zero confidence so the
// decision layer always routes them to review.
func (g *aiGenerator) GenerateReply(ctx context.Context, req repo.ReplyRequest) (*repo.Reply, error) {
	if req.HasUnreadableFiles {
		return &repo.Reply{Text: unreadableFallbackReply, Confidence: 0}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Chat: %s\n\nUnanswered messages:\n%s\n", req.ChatTitle, req.Text)
	if req.Report != "" {
		fmt.Fprintf(&sb, "\nWork report:\n%s\n", req.Report)
	}
	if g.businessData != "" {
		fmt.Fprintf(&sb, "\nBusiness information:\n%s\n", g.businessData)
	}
	if len(req.StyleSample) > 0 {
		sb.WriteString("\nRecent messages written by the owner, match their tone:\n")
		for _, s := range req.StyleSample {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	content, err := g.complete(ctx, replySystemPrompt, sb.String())
	if err != nil {
		return nil, fmt.Errorf("reply request: %w", err)
	}

	var parsed struct {
		Reply      string `json:"reply"`
		Confidence int    `json:"confidence"`
	}
	if err := json.Unmarshal(extractJSON(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse reply response: %w", err)
	}
	if strings.TrimSpace(parsed.Reply) == "" {
		return nil, fmt.Errorf("model returned an empty reply")
	}

	return &repo.Reply{Text: parsed.Reply, Confidence: parsed.Confidence}, nil
}

func (g *aiGenerator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// extractJSON cuts the first top-level JSON object out of a completion,
// tolerating models that wrap it in prose or code fences.
func extractJSON(s string) []byte {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return []byte(s)
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return []byte(s[start : i+1])
				}
			}
		}
	}
	return []byte(s[start:])
}
