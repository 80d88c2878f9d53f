package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"hemoscan/internal/llm"
)

func TestAssistantServicePrompts(t *testing.T) {
	mock := &llm.MockClient{Response: "  reply  "}
	svc := NewAssistantService(zap.NewNop(), mock)
	ctx := context.Background()

	out, err := svc.Chat(ctx, "I feel tired")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "reply" {
		t.Fatalf("expected trimmed reply, got %q", out)
	}
	if !strings.Contains(mock.LastPrompt, "User: I feel tired") || !strings.Contains(mock.LastPrompt, "Do not diagnose") {
		t.Fatalf("unexpected chat prompt: %q", mock.LastPrompt)
	}

	if _, err := svc.Summarize(ctx, "Hb 9.8"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(mock.LastPrompt, "Context: Hb 9.8") {
		t.Fatalf("unexpected summary prompt: %q", mock.LastPrompt)
	}

	if _, err := svc.DietPlan(ctx, "vegetarian", "no nuts"); err != nil {
		t.Fatalf("diet: %v", err)
	}
	if !strings.Contains(mock.LastPrompt, "vegetarian diet") || !strings.HasSuffix(mock.LastPrompt, "Notes: no nuts") {
		t.Fatalf("unexpected diet prompt: %q", mock.LastPrompt)
	}

	if _, err := svc.Translate(ctx, "hello", "es"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(mock.LastPrompt, "Target language: es\nText: hello") {
		t.Fatalf("unexpected translate prompt: %q", mock.LastPrompt)
	}
}

func TestAssistantServiceErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewAssistantService(nil, &llm.MockClient{}).Chat(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty message to be rejected, got %v", err)
	}
	if _, err := NewAssistantService(nil, &llm.MockClient{}).Translate(ctx, "hi", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing language to be rejected, got %v", err)
	}

	unconfigured := NewAssistantService(nil, &llm.MockClient{Err: llm.ErrNotConfigured})
	if _, err := unconfigured.Chat(ctx, "hi"); !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
	if _, err := NewAssistantService(nil, nil).Chat(ctx, "hi"); !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable without client, got %v", err)
	}

	failing := NewAssistantService(nil, &llm.MockClient{Err: errors.New("status=500")})
	if _, err := failing.DietPlan(ctx, "vegan", ""); !errors.Is(err, ErrAssistantUpstream) {
		t.Fatalf("expected ErrAssistantUpstream, got %v", err)
	}
}
