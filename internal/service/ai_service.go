package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/pkg/logger"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxPromptChars = 8000

type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg, client: &http.Client{Timeout: 60 * time.Second}}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []AIChatMessage   `json:"messages"`
	Temperature    float64           `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const quizSystemPrompt = `You write exams for online courses.
- Never invent information that is not in the text.
- Questions must be clear, concrete and answerable from the text alone.
- Mix multiple_choice (3 to 5 options, exactly one correct), true_false (options "True" and "False")
  and cloze (prompt contains "____", options are short words that fit the blank).
- Avoid trivial or repeated questions.`

func quizUserPrompt(text string, count int) string {
	if r := []rune(text); len(r) > maxPromptChars {
		text = string(r[:maxPromptChars])
	}
	return fmt.Sprintf(`Course text:

"""%s"""

Write EXACTLY %d exam questions. Reply with ONLY a JSON object of the form
{"fingerprint": "...", "questions": [{"prompt": "...", "type": "multiple_choice|true_false|cloze",
"options": [{"text": "...", "is_correct": true}]}]}`, text, count)
}

// Chat 调用 OpenAI 兼容的 chat/completions 接口
func (s *AIService) Chat(ctx context.Context, messages []AIChatMessage, jsonOutput bool) (string, error) {
	reqBody := ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    messages,
		Temperature: 0.3,
	}
	if jsonOutput {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.config.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("AI returned no choices")
}

// GenerateQuiz 让模型按固定 JSON 结构出题并做基本清洗
func (s *AIService) GenerateQuiz(ctx context.Context, text string, count int) (*GeneratedQuiz, error) {
	raw, err := s.Chat(ctx, []AIChatMessage{
		{Role: "system", Content: quizSystemPrompt},
		{Role: "user", Content: quizUserPrompt(text, count)},
	}, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Fingerprint string `json:"fingerprint"`
		Questions   []struct {
			Prompt  string `json:"prompt"`
			Type    string `json:"type"`
			Options []struct {
				Text      string `json:"text"`
				Label     string `json:"label"`
				IsCorrect bool   `json:"is_correct"`
			} `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode AI quiz: %w", err)
	}

	quiz := &GeneratedQuiz{Fingerprint: payload.Fingerprint, Source: "ai"}
	if quiz.Fingerprint == "" {
		quiz.Fingerprint = Fingerprint(text, time.Now())
	}
	for _, q := range payload.Questions {
		gq := GeneratedQuestion{Prompt: strings.TrimSpace(q.Prompt), Type: q.Type}
		correct := 0
		for _, o := range q.Options {
			label := o.Text
			if label == "" {
				label = o.Label
			}
			if o.IsCorrect {
				correct++
			}
			gq.Options = append(gq.Options, GeneratedOption{Text: label, IsCorrect: o.IsCorrect})
		}
		// 题干为空或正确项不唯一的题目直接丢弃
		if gq.Prompt == "" || len(gq.Options) < 2 || correct != 1 {
			continue
		}
		quiz.Questions = append(quiz.Questions, gq)
		if len(quiz.Questions) == count {
			break
		}
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("AI returned no usable questions")
	}
	return quiz, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// FallbackGenerator 配置了 AI 时先调用模型，失败则退回本地出题器
type FallbackGenerator struct {
	AI    *AIService
	Local QuestionGenerator
}

func NewQuestionGenerator(cfg config.AIConfig) QuestionGenerator {
	local := NewLocalGenerator()
	if !cfg.Enabled() {
		return local
	}
	return &FallbackGenerator{AI: NewAIService(cfg), Local: local}
}

func (g *FallbackGenerator) Generate(ctx context.Context, text string, count int) (*GeneratedQuiz, error) {
	quiz, err := g.AI.GenerateQuiz(ctx, text, count)
	if err == nil {
		return quiz, nil
	}
	logger.Log.Warn("AI quiz generation failed, using local generator", zap.Error(err))
	return g.Local.Generate(ctx, text, count)
}
