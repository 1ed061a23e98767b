package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

func TestSupplierService(t *testing.T) {
	svc := NewSupplierService(newSeededStore(t, nil))
	ctx := context.Background()

	all, err := svc.GetSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	supplier, err := svc.GetSupplierByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Same, same Foods Co., Ltd.", supplier.CompanyName)

	_, err = svc.GetSupplierByID(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Supplier with id 5 was not found.")

	byName, err := svc.GetSuppliersByName(ctx, "FEINKOST")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, 1, byName[0].ID)

	_, err = svc.GetSuppliersByName(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetSuppliersByName(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	forProduct, err := svc.GetSuppliersForProduct(ctx, "green curry")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, supplierIDs(forProduct))

	_, err = svc.GetSuppliersForProduct(ctx, "Sachertorte")
	assert.ErrorIs(t, err, ErrNotFound)
}

func supplierIDs(suppliers []models.Supplier) []int {
	ids := make([]int, 0, len(suppliers))
	for _, s := range suppliers {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestEmailTemplateService(t *testing.T) {
	st := newSeededStore(t, nil)
	svc := NewEmailTemplateService(st)
	ctx := context.Background()

	fallback, err := svc.GetTemplate(ctx, OfferNotificationTemplate, "de-AT")
	require.NoError(t, err)
	assert.Equal(t, "Offer", fallback.Subject)
	assert.Contains(t, fallback.Body, "{{details}}")

	custom := &models.EmailTemplate{
		TemplateID: OfferNotificationTemplate,
		Locale:     "de-AT",
		Subject:    "Angebot",
		Body:       "Angebot von {{supplierCompany}}",
	}
	require.NoError(t, svc.SaveTemplate(ctx, custom))

	found, err := svc.GetTemplate(ctx, OfferNotificationTemplate, "de-AT")
	require.NoError(t, err)
	assert.Equal(t, "Angebot", found.Subject)

	_, err = svc.GetTemplate(ctx, "unknown_template", "en-US")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.SaveTemplate(ctx, &models.EmailTemplate{TemplateID: "x"}), ErrInvalidArgument)
}
