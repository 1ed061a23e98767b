package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexander-kastil/talk-low-code-process/internal/db"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/utils"
)

const orderPlacedMessage = "Order placed successfully."

// IOrderService places orders, optionally against a previously issued offer.
type IOrderService interface {
	PlaceOrder(ctx context.Context, order models.Order) (*models.OrderConfirmation, error)
}

// OrderStore is the slice of the store the order workflow needs.
type OrderStore interface {
	store.SupplierStore
	store.OfferStore
	store.OrderStore
}

type orderService struct {
	store OrderStore
	now   func() time.Time
}

func NewOrderService(st OrderStore) IOrderService {
	return &orderService{store: st, now: time.Now}
}

// PlaceOrder validates the order and, when it references an offer, accepts that offer.
// An offer is accepted at most once; validation failures leave it pending.
func (s *orderService) PlaceOrder(ctx context.Context, order models.Order) (*models.OrderConfirmation, error) {
	if err := validateOrder(&order); err != nil {
		return nil, err
	}

	if _, err := s.store.FindSupplierByID(ctx, order.SupplierID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Supplier with id %d was not found.", order.SupplierID)
		}
		return nil, fmt.Errorf("%w: supplier lookup: %w", ErrUnexpected, err)
	}

	confirmation := &models.OrderConfirmation{
		Message:    orderPlacedMessage,
		RequestID:  order.RequestID,
		SupplierID: order.SupplierID,
		Date:       order.Date,
		Total:      order.Subtotal(),
	}

	if strings.TrimSpace(order.OfferID) != "" {
		offer, err := s.acceptOffer(ctx, &order)
		if err != nil {
			return nil, err
		}
		transportationCost := offer.TransportationCost
		confirmation.OfferID = order.OfferID
		confirmation.TransportationCost = &transportationCost
		confirmation.Total = confirmation.Total.Add(transportationCost)
	}

	orderNumber, err := s.journal(ctx, &order, confirmation)
	if err != nil {
		log.Printf("ERROR writing order journal for request %s: %v", order.RequestID, err)
	} else {
		confirmation.OrderNumber = orderNumber.String()
	}

	return confirmation, nil
}

func validateOrder(order *models.Order) error {
	if strings.TrimSpace(order.RequestID) == "" {
		return invalidArgument("Request id must be provided.")
	}
	if order.SupplierID < 1 {
		return invalidArgument("Supplier id must be a positive number.")
	}
	if len(order.Details) == 0 {
		return invalidArgument("At least one order line must be provided.")
	}
	for _, d := range order.Details {
		if strings.TrimSpace(d.ProductName) == "" {
			return invalidArgument("Product name must be provided.")
		}
		if d.Quantity < 1 {
			return invalidArgument("Quantity for '%s' must be at least 1.", d.ProductName)
		}
		if d.Price.IsNegative() {
			return invalidArgument("Price for '%s' must not be negative.", d.ProductName)
		}
	}
	return nil
}

// acceptOffer checks every order line against the offer and then flips the offer to accepted.
func (s *orderService) acceptOffer(ctx context.Context, order *models.Order) (*models.Offer, error) {
	offerID, err := uuid.Parse(strings.TrimSpace(order.OfferID))
	if err != nil {
		return nil, invalidArgument("Invalid OfferId format.")
	}

	offer, err := s.store.FindOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Offer with id %s was not found.", order.OfferID)
		}
		return nil, fmt.Errorf("%w: offer lookup: %w", ErrUnexpected, err)
	}

	if offer.SupplierID != order.SupplierID {
		return nil, conflict("Offer supplier does not match the order supplier.")
	}

	// Lines naming the same product draw on one offered quantity.
	ordered := make(map[string]int, len(order.Details))
	for _, line := range order.Details {
		offered, ok := offer.FindDetail(line.ProductName)
		if !ok {
			return nil, notFound("Product '%s' is not included in the offer.", line.ProductName)
		}
		if offered.Quantity == 0 {
			return nil, conflict("Product '%s' is not available in the offer.", line.ProductName)
		}
		key := models.NormalizeName(line.ProductName)
		ordered[key] += line.Quantity
		if ordered[key] > offered.Quantity {
			return nil, conflict("Requested quantity for '%s' exceeds the offered quantity.", line.ProductName)
		}
		if !line.Price.Equal(offered.Price) {
			return nil, conflict("Price for '%s' does not match the offer price.", line.ProductName)
		}
	}

	if err := s.store.AcceptOffer(ctx, offerID); err != nil {
		switch {
		case errors.Is(err, store.ErrOfferNotPending):
			return nil, conflict("Offer with id %s has already been accepted.", order.OfferID)
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("Offer with id %s was not found.", order.OfferID)
		default:
			return nil, fmt.Errorf("%w: failed to accept offer: %w", ErrUnexpected, err)
		}
	}

	offer.Status = models.OfferStatusAccepted
	return offer, nil
}

// journal records the placed order under a fresh order number, retrying on number collisions.
func (s *orderService) journal(ctx context.Context, order *models.Order, confirmation *models.OrderConfirmation) (utils.SixID, error) {
	record := &models.OrderRecord{
		RequestID:  order.RequestID,
		SupplierID: order.SupplierID,
		OfferID:    confirmation.OfferID,
		Date:       order.Date,
		Details:    order.Details,
		Total:      confirmation.Total,
		CreatedAt:  s.now().UTC(),
	}

	err := db.WithRetries(func() error {
		record.ID = utils.NewSixID()
		return s.store.InsertOrder(ctx, record)
	}, db.DefaultMaxRetries, func(err error) bool {
		return errors.Is(err, store.ErrDuplicate) || db.IsDuplicateKey(err)
	})
	if err != nil {
		return utils.SixID{}, err
	}
	return record.ID, nil
}
