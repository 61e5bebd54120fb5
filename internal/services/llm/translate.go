package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TranslationSystemPrompt frames every translation request.
const TranslationSystemPrompt = "You are a professional translator. Translate text accurately while preserving meaning, tone, and context. Return only the translated text without any additional commentary."

// Completer is the subset of Client used by Translator.
type Completer interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Translator translates single pieces of text through a chat model.
type Translator struct {
	client Completer
}

// NewTranslator wraps a completion client.
func NewTranslator(client Completer) *Translator {
	return &Translator{client: client}
}

// TranslationPrompt builds the user prompt. When autoDetect is set the model
// is asked to infer the source language itself.
func TranslationPrompt(text, sourceName, targetName string, autoDetect bool) string {
	if autoDetect || strings.TrimSpace(sourceName) == "" {
		return fmt.Sprintf("Translate the following text to %s. Preserve the original meaning and tone. Only return the translated text, nothing else:\n\n%s", targetName, text)
	}
	return fmt.Sprintf("Translate the following %s text to %s. Preserve the original meaning and tone. Only return the translated text, nothing else:\n\n%s", sourceName, targetName, text)
}

// Translate returns the model's translation of text.
func (t *Translator) Translate(ctx context.Context, text, sourceName, targetName string, autoDetect bool) (string, error) {
	if t == nil || t.client == nil {
		return "", errors.New("llm translate: client not configured")
	}
	if strings.TrimSpace(targetName) == "" {
		return "", errors.New("llm translate: target language required")
	}
	out, err := t.client.CompleteText(ctx, TranslationSystemPrompt, TranslationPrompt(text, sourceName, targetName, autoDetect))
	if err != nil {
		return "", fmt.Errorf("llm translate: %w", err)
	}
	return strings.TrimSpace(out), nil
}
