package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// ISupplierService serves supplier reference data.
type ISupplierService interface {
	GetSuppliers(ctx context.Context) ([]models.Supplier, error)
	GetSupplierByID(ctx context.Context, id int) (*models.Supplier, error)
	GetSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error)
	GetSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error)
}

type supplierService struct {
	store store.SupplierStore
}

func NewSupplierService(st store.SupplierStore) ISupplierService {
	return &supplierService{store: st}
}

func (s *supplierService) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.store.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list suppliers: %w", ErrUnexpected, err)
	}
	return suppliers, nil
}

func (s *supplierService) GetSupplierByID(ctx context.Context, id int) (*models.Supplier, error) {
	supplier, err := s.store.FindSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Supplier with id %d was not found.", id)
		}
		return nil, fmt.Errorf("%w: supplier lookup: %w", ErrUnexpected, err)
	}
	return supplier, nil
}

// GetSuppliersByName returns NotFound instead of an empty list.
func (s *supplierService) GetSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("Supplier name must be provided.")
	}
	suppliers, err := s.store.FindSuppliersByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier lookup: %w", ErrUnexpected, err)
	}
	if len(suppliers) == 0 {
		return nil, notFound("No supplier found with name '%s'.", name)
	}
	return suppliers, nil
}

// GetSuppliersForProduct returns NotFound instead of an empty list.
func (s *supplierService) GetSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error) {
	if strings.TrimSpace(product) == "" {
		return nil, invalidArgument("Product name must be provided.")
	}
	suppliers, err := s.store.FindSuppliersForProduct(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier lookup: %w", ErrUnexpected, err)
	}
	if len(suppliers) == 0 {
		return nil, notFound("No supplier found for product '%s'.", product)
	}
	return suppliers, nil
}
