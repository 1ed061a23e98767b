package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

const (
	OfferNotificationTemplate = "offer_notification"
	DefaultTemplateLocale     = "en-US"
)

// Default email templates used as fallback when not found in the store
var defaultEmailTemplates = map[string]models.EmailTemplate{
	OfferNotificationTemplate: {
		TemplateID: OfferNotificationTemplate,
		Locale:     DefaultTemplateLocale,
		Subject:    "Offer",
		System: "You write short, friendly business e-mails on behalf of a food supplier. " +
			"Answer with the plain-text e-mail body only. Keep every number, price and product name exactly as given " +
			"and do not invent products, discounts or delivery dates.",
		Body: "Write an e-mail presenting offer details to a customer.\n" +
			"Supplier: {{supplierCompany}} (id {{supplierId}})\n" +
			"{{supplierAddress}}\n" +
			"Offer issued at: {{timestamp}}\n" +
			"Transportation cost: {{transportationCost}}\n" +
			"Offer lines:\n{{details}}\n" +
			"{{unavailableNotice}}\n" +
			"Close with the supplier's company name and address as signature.",
	},
}

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	SaveTemplate(ctx context.Context, template *models.EmailTemplate) error
}

type emailTemplateService struct {
	store store.TemplateStore
}

func NewEmailTemplateService(st store.TemplateStore) IEmailTemplateService {
	return &emailTemplateService{store: st}
}

// GetTemplate retrieves an email template by ID and locale
func (s *emailTemplateService) GetTemplate(ctx context.Context, templateID string, locale string) (*models.EmailTemplate, error) {
	template, err := s.store.FindEmailTemplate(ctx, templateID, locale)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// If template not found in the store, try to get from defaults
			if defaultTemplate, ok := defaultEmailTemplates[templateID]; ok {
				return &defaultTemplate, nil
			}
			return nil, notFound("Template '%s' (locale %s) was not found.", templateID, locale)
		}
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}

	return template, nil
}

// SaveTemplate saves an email template to the store
func (s *emailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	if template.TemplateID == "" || template.Locale == "" {
		return invalidArgument("Template id and locale must be provided.")
	}
	if err := s.store.SaveEmailTemplate(ctx, template); err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}
