// Package memstore is an in-memory store.Store used for local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// Store keeps everything in maps guarded by a single RWMutex.
// Values are copied on the way in and out so callers never share slices with the store.
type Store struct {
	mu        sync.RWMutex
	products  map[string]models.Product // keyed by normalized name
	suppliers map[int]models.Supplier
	offers    map[uuid.UUID]models.Offer
	orders    map[string]models.OrderRecord // keyed by order number
	settings  map[string]string
	templates map[string]models.EmailTemplate // keyed by template_id + "/" + locale
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products:  make(map[string]models.Product),
		suppliers: make(map[int]models.Supplier),
		offers:    make(map[uuid.UUID]models.Offer),
		orders:    make(map[string]models.OrderRecord),
		settings:  make(map[string]string),
		templates: make(map[string]models.EmailTemplate),
	}
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := lo.Values(s.products)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[store.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	key := store.NormalizeName(p.Name)
	if key == "" {
		return fmt.Errorf("product name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A rename must not leave the old key behind.
	for k, existing := range s.products {
		if existing.ID == p.ID && k != key {
			delete(s.products, k)
		}
	}
	if existing, ok := s.products[key]; ok && existing.ID != p.ID {
		return fmt.Errorf("product %q: %w", p.Name, store.ErrDuplicate)
	}
	s.products[key] = *p
	return nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedSuppliers(func(models.Supplier) bool { return true }), nil
}

func (s *Store) FindSupplierByID(ctx context.Context, id int) (*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
	}
	sup = copySupplier(sup)
	return &sup, nil
}

func (s *Store) FindSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return []models.Supplier{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedSuppliers(func(sup models.Supplier) bool {
		return strings.Contains(strings.ToLower(sup.CompanyName), query)
	}), nil
}

func (s *Store) FindSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedSuppliers(func(sup models.Supplier) bool {
		return sup.Supplies(product)
	}), nil
}

func (s *Store) UpsertSupplier(ctx context.Context, sup *models.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliers[sup.ID] = copySupplier(*sup)
	return nil
}

// sortedSuppliers must be called with the read lock held.
func (s *Store) sortedSuppliers(match func(models.Supplier) bool) []models.Supplier {
	items := make([]models.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if match(sup) {
			items = append(items, copySupplier(sup))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Store) InsertOffer(ctx context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[o.ID]; exists {
		return fmt.Errorf("offer %s: %w", o.ID, store.ErrDuplicate)
	}
	s.offers[o.ID] = copyOffer(*o)
	return nil
}

func (s *Store) FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
	}
	o = copyOffer(o)
	return &o, nil
}

func (s *Store) AcceptOffer(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
	}
	if o.Status != models.OfferStatusPending {
		return fmt.Errorf("offer %s: %w", id, store.ErrOfferNotPending)
	}
	o.Status = models.OfferStatusAccepted
	s.offers[id] = o
	return nil
}

func (s *Store) InsertOrder(ctx context.Context, r *models.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.ID.String()
	if _, exists := s.orders[key]; exists {
		return fmt.Errorf("order %s: %w", key, store.ErrDuplicate)
	}
	rec := *r
	rec.Details = append([]models.OrderDetail(nil), r.Details...)
	s.orders[key] = rec
	return nil
}

// Orders returns the journal, oldest first.
func (s *Store) Orders() []models.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := lo.Values(s.orders)
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := lo.MapToSlice(s.settings, func(k, v string) models.Setting {
		return models.Setting{Key: k, Value: v}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

func (s *Store) EnsureSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settings[key]; !exists {
		s.settings[key] = value
	}
	return nil
}

func (s *Store) FindEmailTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[templateID+"/"+locale]
	if !ok {
		return nil, fmt.Errorf("template %s (%s): %w", templateID, locale, store.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) SaveEmailTemplate(ctx context.Context, t *models.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[t.TemplateID+"/"+t.Locale] = *t
	return nil
}

func copySupplier(s models.Supplier) models.Supplier {
	s.Products = append([]string(nil), s.Products...)
	return s
}

func copyOffer(o models.Offer) models.Offer {
	o.Details = append([]models.OfferDetail(nil), o.Details...)
	return o
}
