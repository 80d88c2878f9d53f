package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hemoscan/internal/llm"
)

var (
	ErrAssistantUnavailable = errors.New("assistant not configured")
	ErrAssistantUpstream    = errors.New("assistant upstream failed")
)

const assistantPersona = "You are HemoScan AI. Provide clear, concise responses. " +
	"Do not diagnose; suggest seeing a clinician for medical advice."

// AssistantService arma prompts fijos y los delega al LLM.
type AssistantService struct {
	logger *zap.Logger
	llm    llm.LLMClient
}

func NewAssistantService(logger *zap.Logger, client llm.LLMClient) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{logger: logger, llm: client}
}

func (s *AssistantService) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrInvalidInput
	}
	return s.generate(ctx, "chat", assistantPersona+"\n\nUser: "+message)
}

func (s *AssistantService) Summarize(ctx context.Context, clinicalContext string) (string, error) {
	clinicalContext = strings.TrimSpace(clinicalContext)
	if clinicalContext == "" {
		return "", ErrInvalidInput
	}
	prompt := "Summarize the clinical context clearly and concisely. Do not add new facts.\n\n" +
		"Context: " + clinicalContext
	return s.generate(ctx, "summary", prompt)
}

func (s *AssistantService) DietPlan(ctx context.Context, dietType, notes string) (string, error) {
	dietType = strings.TrimSpace(dietType)
	if dietType == "" {
		return "", ErrInvalidInput
	}
	prompt := fmt.Sprintf("Create a practical, budget-friendly diet plan for a %s diet. "+
		"Focus on iron-rich foods and include 3 meal ideas plus 3 snack ideas.", dietType)
	if notes = strings.TrimSpace(notes); notes != "" {
		prompt += " Notes: " + notes
	}
	return s.generate(ctx, "diet", prompt)
}

func (s *AssistantService) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	text = strings.TrimSpace(text)
	targetLanguage = strings.TrimSpace(targetLanguage)
	if text == "" || targetLanguage == "" {
		return "", ErrInvalidInput
	}
	prompt := "Translate the text to the target language. Return only the translated text.\n\n" +
		"Target language: " + targetLanguage + "\nText: " + text
	return s.generate(ctx, "translate", prompt)
}

func (s *AssistantService) generate(ctx context.Context, op, prompt string) (string, error) {
	if s.llm == nil {
		return "", ErrAssistantUnavailable
	}
	out, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return "", ErrAssistantUnavailable
		}
		s.logger.Warn("assistant generate failed", zap.String("op", op), zap.Error(err))
		return "", ErrAssistantUpstream
	}
	return strings.TrimSpace(out), nil
}
