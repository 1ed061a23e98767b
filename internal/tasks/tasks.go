package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/alexander-kastil/talk-low-code-process/internal/email"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// TaskType defines the type of a background task.
const (
	TypeOfferNotification = "offer:notify"
)

const fallbackFromAddress = "noreply@example.com"

// --- Task Client (Enqueuing tasks) ---

// IAsynqClient is the part of *asynq.Client used to enqueue tasks.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// --- Offer mails ---

// OfferMailer renders an offer into a mail and sends it to the address on the offer.
type OfferMailer struct {
	suppliers store.SupplierStore
	composer  *email.OfferComposer
	sender    email.Sender
	from      string
	now       func() time.Time
}

func NewOfferMailer(suppliers store.SupplierStore, composer *email.OfferComposer, sender email.Sender, fromAddress string) *OfferMailer {
	return &OfferMailer{
		suppliers: suppliers,
		composer:  composer,
		sender:    sender,
		from:      fromAddress,
		now:       time.Now,
	}
}

// Deliver sends the offer mail. Offers without an address are skipped.
func (m *OfferMailer) Deliver(ctx context.Context, offer *models.Offer) error {
	to := strings.TrimSpace(offer.Email)
	if to == "" {
		return nil
	}

	supplier, err := m.suppliers.FindSupplierByID(ctx, offer.SupplierID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Warning: could not load supplier %d for offer %s mail: %v", offer.SupplierID, offer.ID, err)
		}
		supplier = nil
	}

	body := m.composer.Compose(ctx, email.SummarizeOffer(offer, supplier))

	fromAddress := m.from
	if fromAddress == "" {
		fromAddress = fallbackFromAddress
		log.Printf("Warning: SmtpFromAddress not configured, using fallback %s for email to %s", fromAddress, to)
	}

	rawMessage := email.BuildHTMLMessage(fromAddress, []string{to}, email.OfferSubject, body, m.now())
	if err := m.sender.Send(ctx, []string{to}, email.OfferSubject, rawMessage); err != nil {
		return fmt.Errorf("send offer %s: %w", offer.ID, err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	offers store.OfferStore
	mailer *OfferMailer
}

func NewTaskProcessor(offers store.OfferStore, mailer *OfferMailer) *TaskProcessor {
	return &TaskProcessor{offers: offers, mailer: mailer}
}

// SetupServer configures the Asynq server and its handlers. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOfferNotification, processor.HandleOfferNotificationTask)
	fmt.Println("Registered offer notification task handler.")

	return srv, mux
}

// --- Task Handlers ---

type OfferNotificationPayload struct {
	OfferID string `json:"offer_id"`
}

func NewOfferNotificationTask(offerID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(OfferNotificationPayload{OfferID: offerID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal offer notification payload: %w", err)
	}
	return asynq.NewTask(TypeOfferNotification, payload), nil
}

// HandleOfferNotificationTask loads the offer and mails it. Bad payloads and unknown offers
// are not retried; send failures are.
func (p *TaskProcessor) HandleOfferNotificationTask(ctx context.Context, t *asynq.Task) error {
	var payload OfferNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal offer notification payload: %v: %w", err, asynq.SkipRetry)
	}

	offerID, err := uuid.Parse(payload.OfferID)
	if err != nil {
		return fmt.Errorf("invalid offer id %q: %w", payload.OfferID, asynq.SkipRetry)
	}

	offer, err := p.offers.FindOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("offer %s not found: %w", offerID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load offer %s: %w", offerID, err)
	}

	fmt.Printf("Sending offer notification: Offer=%s, To=%s\n", offer.ID, offer.Email)
	if err := p.mailer.Deliver(ctx, offer); err != nil {
		fmt.Printf("Offer notification failed (will retry): %v\n", err)
		return err
	}
	fmt.Printf("Offer notification processed successfully: Offer=%s\n", offer.ID)
	return nil
}
