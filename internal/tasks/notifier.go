package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// InlineNotifier mails the offer within the inquiry request (NOTIFY_MODE=inline).
type InlineNotifier struct {
	mailer *OfferMailer
}

func NewInlineNotifier(mailer *OfferMailer) *InlineNotifier {
	return &InlineNotifier{mailer: mailer}
}

func (n *InlineNotifier) NotifyOffer(ctx context.Context, offer *models.Offer) error {
	return n.mailer.Deliver(ctx, offer)
}

// QueueNotifier hands the offer to the background worker (NOTIFY_MODE=queue).
type QueueNotifier struct {
	client IAsynqClient
}

func NewQueueNotifier(client IAsynqClient) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) NotifyOffer(ctx context.Context, offer *models.Offer) error {
	task, err := NewOfferNotificationTask(offer.ID)
	if err != nil {
		return err
	}
	info, err := n.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("failed to enqueue offer notification for %s: %w", offer.ID, err)
	}
	log.Printf("Enqueued offer notification task %s for offer %s", info.ID, offer.ID)
	return nil
}

var (
	_ services.IOfferNotifier = (*InlineNotifier)(nil)
	_ services.IOfferNotifier = (*QueueNotifier)(nil)
)
