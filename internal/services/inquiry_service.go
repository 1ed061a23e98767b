package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/random"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// IInquiryService turns offer requests into persisted offers.
type IInquiryService interface {
	RequestOffer(ctx context.Context, request models.OfferRequest) (*models.Offer, error)
	GetOfferByID(ctx context.Context, id string) (*models.Offer, error)
}

// InquiryStore is the slice of the store the inquiry workflow needs.
type InquiryStore interface {
	store.ProductStore
	store.SupplierStore
	store.OfferStore
}

type inquiryService struct {
	random   random.Provider
	store    InquiryStore
	settings ISettingsService
	notifier IOfferNotifier
	now      func() time.Time
}

// NewInquiryService creates a new inquiry service. A nil notifier disables offer mails.
func NewInquiryService(provider random.Provider, st InquiryStore, settings ISettingsService, notifier IOfferNotifier) IInquiryService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &inquiryService{
		random:   provider,
		store:    st,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
	}
}

// RequestOffer prices every requested line, stores the offer as pending and notifies the
// inquirer when an e-mail address was given. Products the supplier does not carry get an
// empty, unavailable line and consume no random draws.
func (s *inquiryService) RequestOffer(ctx context.Context, request models.OfferRequest) (*models.Offer, error) {
	if len(request.RequestDetails) == 0 {
		return nil, invalidArgument("At least one product must be provided.")
	}

	email, err := offerAddress(request.Email)
	if err != nil {
		return nil, err
	}

	supplier, err := s.store.FindSupplierByID(ctx, request.SupplierID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Supplier with id %d was not found.", request.SupplierID)
		}
		return nil, fmt.Errorf("%w: supplier lookup: %w", ErrUnexpected, err)
	}

	randomizer := NewOfferRandomizer(s.random, s.store, LoadRandomizerOptions(s.settings))

	details := make([]models.OfferDetail, 0, len(request.RequestDetails))
	for _, line := range request.RequestDetails {
		if strings.TrimSpace(line.Product) == "" {
			return nil, invalidArgument("Product name must be provided.")
		}

		if !supplier.Supplies(line.Product) {
			details = append(details, models.OfferDetail{
				ProductName:       line.Product,
				RequestedQuantity: line.RequestedQuantity,
			})
			continue
		}

		detail, err := randomizer.GenerateOfferDetail(ctx, line.Product, line.RequestedQuantity)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	offer := &models.Offer{
		ID:                 uuid.New(),
		SupplierID:         supplier.ID,
		TransportationCost: randomizer.TransportationCost(),
		Timestamp:          s.now().UTC(),
		Email:              email,
		Status:             models.OfferStatusPending,
		Details:            details,
	}

	if err := s.store.InsertOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("%w: failed to save offer: %w", ErrUnexpected, err)
	}

	if email != "" {
		if err := s.notifier.NotifyOffer(ctx, offer); err != nil {
			log.Printf("Warning: failed to send offer %s to %s: %v", offer.ID, email, err)
		}
	}

	return offer, nil
}

// GetOfferByID returns a stored offer.
func (s *inquiryService) GetOfferByID(ctx context.Context, id string) (*models.Offer, error) {
	offerID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, invalidArgument("Invalid GUID format.")
	}

	offer, err := s.store.FindOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Offer with ID %s was not found.", id)
		}
		return nil, fmt.Errorf("%w: offer lookup: %w", ErrUnexpected, err)
	}
	return offer, nil
}

// offerAddress returns the bare address the offer mail goes to, or "" when none was given.
// The address ends up in a mail header, so anything net/mail does not accept as exactly one
// address is rejected.
func offerAddress(raw *string) (string, error) {
	if raw == nil {
		return "", nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", invalidArgument("Invalid e-mail address.")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", invalidArgument("Invalid e-mail address.")
	}
	return addr.Address, nil
}
