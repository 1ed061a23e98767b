package services

import (
	"context"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

// IOfferNotifier tells the inquirer about a freshly persisted offer.
// Implementations either send the mail right away or hand it to the background worker.
type IOfferNotifier interface {
	NotifyOffer(ctx context.Context, offer *models.Offer) error
}

// NoopNotifier drops every notification. Used when no mail transport is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyOffer(context.Context, *models.Offer) error {
	return nil
}
