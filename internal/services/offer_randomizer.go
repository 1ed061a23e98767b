package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/random"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// OfferRandomizer decides price, quantity and delivery of one offer line.
// Every decision consumes draws from the provider in a fixed order, so a seeded
// provider reproduces the same lines for the same inputs.
type OfferRandomizer struct {
	random   random.Provider
	products store.ProductStore
	options  RandomizerOptions
}

func NewOfferRandomizer(provider random.Provider, products store.ProductStore, options RandomizerOptions) *OfferRandomizer {
	return &OfferRandomizer{random: provider, products: products, options: options}
}

func (r *OfferRandomizer) TransportationCost() decimal.Decimal {
	return r.options.TransportationCost
}

// GenerateOfferDetail produces the offer line for requestedAmount units of productName.
func (r *OfferRandomizer) GenerateOfferDetail(ctx context.Context, productName string, requestedAmount int) (models.OfferDetail, error) {
	if strings.TrimSpace(productName) == "" {
		return models.OfferDetail{}, invalidArgument("Product name must be provided.")
	}
	if requestedAmount <= 0 {
		return models.OfferDetail{}, invalidArgument("Requested amount must be greater than zero.")
	}

	product, err := r.products.FindProductByName(ctx, productName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.OfferDetail{}, notFound("No base price configured for product '%s'.", productName)
		}
		return models.OfferDetail{}, fmt.Errorf("%w: base price lookup: %w", ErrUnexpected, err)
	}

	price, err := r.offeredPrice(product.BasePrice)
	if err != nil {
		return models.OfferDetail{}, err
	}

	detail := models.OfferDetail{
		ProductName:       productName,
		BasePrice:         product.BasePrice,
		Price:             price,
		RequestedQuantity: requestedAmount,
	}

	if r.random.NextUniform() < r.options.sameDayProbability() {
		detail.Quantity = requestedAmount
		detail.Available = true
		detail.DeliveryDurationDays = 1
		return detail, nil
	}

	detail.Quantity, detail.Available, err = r.offeredQuantity(requestedAmount)
	if err != nil {
		return models.OfferDetail{}, err
	}
	detail.DeliveryDurationDays = r.deliveryDays()
	return detail, nil
}

func (r *OfferRandomizer) offeredPrice(base decimal.Decimal) (decimal.Decimal, error) {
	pricing := r.options.Pricing
	decision := r.random.NextUniform()

	if decision < pricing.BaseProbability {
		return base, nil
	}

	one := decimal.NewFromInt(1)
	if decision < pricing.BaseProbability+pricing.DiscountProbability {
		discount, err := r.random.NextUniformRange(pricing.DiscountMin, pricing.DiscountMax)
		if err != nil {
			return decimal.Zero, rangeError("discount", err)
		}
		return r.clampPrice(base, models.RoundMoney(base.Mul(one.Sub(decimal.NewFromFloat(discount))))), nil
	}

	markup, err := r.random.NextUniformRange(pricing.MarkupMin, pricing.MarkupMax)
	if err != nil {
		return decimal.Zero, rangeError("markup", err)
	}
	return r.clampPrice(base, models.RoundMoney(base.Mul(one.Add(decimal.NewFromFloat(markup))))), nil
}

// clampPrice keeps a rounded price inside [base*(1-DiscountMax), base*(1+MarkupMax)].
// Rounding to cents can otherwise step past a bound that is not a whole cent.
func (r *OfferRandomizer) clampPrice(base, price decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	low := base.Mul(one.Sub(decimal.NewFromFloat(r.options.Pricing.DiscountMax))).RoundCeil(2)
	high := base.Mul(one.Add(decimal.NewFromFloat(r.options.Pricing.MarkupMax))).RoundFloor(2)
	if price.GreaterThan(high) {
		price = high
	}
	if price.LessThan(low) {
		price = low
	}
	return price
}

func (r *OfferRandomizer) offeredQuantity(requested int) (int, bool, error) {
	qty := r.options.Quantity
	decision := r.random.NextUniform()

	if decision < qty.FulfillProbability {
		return requested, true, nil
	}

	if decision < qty.FulfillProbability+qty.ReducedProbability {
		reduction, err := r.random.NextUniformRange(qty.ReducedMin, qty.ReducedMax)
		if err != nil {
			return 0, false, rangeError("quantity reduction", err)
		}
		// math.Round rounds half away from zero.
		reduced := int(math.Round(float64(requested) * (1 - reduction)))
		return min(max(reduced, 1), requested), true, nil
	}

	return 0, false, nil
}

func (r *OfferRandomizer) deliveryDays() int {
	delivery := r.options.Delivery

	if r.random.NextUniform() < delivery.CommonProbability {
		if r.random.NextUniform() < 0.5 {
			return delivery.CommonDays[0]
		}
		return delivery.CommonDays[1]
	}

	additional := int(math.Floor(r.random.NextUniform() * float64(max(delivery.AdditionalDaysRange, 0))))
	return delivery.AdditionalDaysBase + additional
}

func rangeError(what string, err error) error {
	if errors.Is(err, random.ErrInvalidRange) {
		return fmt.Errorf("%w: misconfigured %s range: %w", ErrUnexpected, what, err)
	}
	return fmt.Errorf("%w: %s draw: %w", ErrUnexpected, what, err)
}
