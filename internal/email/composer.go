package email

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/alexander-kastil/talk-low-code-process/internal/config"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

const (
	offerTemplateID     = "offer_notification"
	offerTemplateLocale = "en-US"
)

// TemplateProvider looks up prompt templates by id and locale.
type TemplateProvider interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
}

// NewOpenAIModel returns the chat model used to word offer mails, or nil when no API key
// is configured.
func NewOpenAIModel(cfg *config.Config) (llms.Model, error) {
	if cfg.OpenAIApiKey == "" {
		return nil, nil
	}
	llm, err := openai.New(
		openai.WithModel(cfg.OpenAIModel),
		openai.WithToken(cfg.OpenAIApiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("openai.New: %w", err)
	}
	return llm, nil
}

// OfferComposer writes the body of offer mails. With a model it asks the model to word the
// mail from the offer_notification template; without one, or whenever that fails, it
// returns the plain deterministic text.
type OfferComposer struct {
	llm       llms.Model
	templates TemplateProvider
}

// NewOfferComposer accepts a nil llm.
func NewOfferComposer(llm llms.Model, templates TemplateProvider) *OfferComposer {
	return &OfferComposer{llm: llm, templates: templates}
}

func (c *OfferComposer) Compose(ctx context.Context, summary OfferSummary) string {
	if c.llm == nil || c.templates == nil {
		return summary.PlainText()
	}

	body, err := c.generate(ctx, summary)
	if err != nil {
		log.Printf("Warning: AI offer mail generation failed, using plain text: %v", err)
		return summary.PlainText()
	}
	if strings.TrimSpace(body) == "" {
		log.Println("Warning: AI offer mail generation returned an empty answer, using plain text")
		return summary.PlainText()
	}
	return body
}

func (c *OfferComposer) generate(ctx context.Context, summary OfferSummary) (string, error) {
	tmpl, err := c.templates.GetTemplate(ctx, offerTemplateID, offerTemplateLocale)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}

	vars := summary.Variables()
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	prompt := strings.NewReplacer(pairs...).Replace(tmpl.Body)

	content := make([]llms.MessageContent, 0, 2)
	if strings.TrimSpace(tmpl.System) != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, tmpl.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	completion, err := c.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("llm.GenerateContent: %w", err)
	}

	var response strings.Builder
	for _, choice := range completion.Choices {
		if choice == nil {
			continue
		}
		response.WriteString(choice.Content)
	}
	return response.String(), nil
}
