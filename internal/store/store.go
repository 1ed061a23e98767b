// Package store defines the persistence ports of the purchasing service.
// Backends live in the memstore, mongostore and pgstore subpackages.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrOfferNotPending = errors.New("offer is not pending")
	ErrDuplicate       = errors.New("duplicate key")
)

// NormalizeName is the key every backend indexes product names by.
var NormalizeName = models.NormalizeName

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	// FindProductByName matches on the normalized name.
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	UpsertProduct(ctx context.Context, p *models.Product) error
}

type SupplierStore interface {
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	FindSupplierByID(ctx context.Context, id int) (*models.Supplier, error)
	// FindSuppliersByName returns suppliers whose company name contains name, ignoring case.
	FindSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error)
	FindSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error)
	UpsertSupplier(ctx context.Context, s *models.Supplier) error
}

type OfferStore interface {
	InsertOffer(ctx context.Context, o *models.Offer) error
	FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	// AcceptOffer moves the offer from pending to accepted in a single conditional write.
	// It returns ErrNotFound for unknown ids and ErrOfferNotPending when the offer was
	// already accepted.
	AcceptOffer(ctx context.Context, id uuid.UUID) error
}

type OrderStore interface {
	// InsertOrder returns an error wrapping ErrDuplicate when the order number is taken.
	InsertOrder(ctx context.Context, r *models.OrderRecord) error
}

type SettingsStore interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	PutSetting(ctx context.Context, key, value string) error
	// EnsureSetting writes the value only when the key does not exist yet.
	EnsureSetting(ctx context.Context, key, value string) error
}

type TemplateStore interface {
	FindEmailTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	SaveEmailTemplate(ctx context.Context, t *models.EmailTemplate) error
}

// Store is everything the service persists.
type Store interface {
	ProductStore
	SupplierStore
	OfferStore
	OrderStore
	SettingsStore
	TemplateStore
	Close(ctx context.Context) error
}
