package handlers_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

// --- Mocks ---

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) RequestOffer(ctx context.Context, request models.OfferRequest) (*models.Offer, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockInquiryService) GetOfferByID(ctx context.Context, id string) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

// MockOrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, order models.Order) (*models.OrderConfirmation, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderConfirmation), args.Error(1)
}

// MockSupplierService
type MockSupplierService struct {
	mock.Mock
}

func (m *MockSupplierService) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockSupplierService) GetSupplierByID(ctx context.Context, id int) (*models.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockSupplierService) GetSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockSupplierService) GetSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Supplier), args.Error(1)
}

// MockSettingsService
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSettingsService) SubscribeToChanges(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSettingsService) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *MockSettingsService) All() map[string]string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]string)
}

func (m *MockSettingsService) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockSettingsService) GetInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockSettingsService) GetFloat64(key string, defaultValue float64) float64 {
	args := m.Called(key, defaultValue)
	return args.Get(0).(float64)
}

func (m *MockSettingsService) GetDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	args := m.Called(key, defaultValue)
	return args.Get(0).(decimal.Decimal)
}

func (m *MockSettingsService) GetIntList(key string, defaultValue []int) []int {
	args := m.Called(key, defaultValue)
	return args.Get(0).([]int)
}

func (m *MockSettingsService) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

// MockEmailTemplateService
type MockEmailTemplateService struct {
	mock.Mock
}

func (m *MockEmailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	args := m.Called(ctx, templateID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailTemplate), args.Error(1)
}

func (m *MockEmailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	return m.Called(ctx, template).Error(0)
}
