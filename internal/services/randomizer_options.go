package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Settings keys read by LoadRandomizerOptions.
const (
	keyTransportationCost     = "OfferRandomizer_TransportationCost"
	keyBaseProbability        = "OfferRandomizer_Pricing_BaseProbability"
	keyDiscountProbability    = "OfferRandomizer_Pricing_DiscountProbability"
	keyMarkupProbability      = "OfferRandomizer_Pricing_MarkupProbability"
	keyDiscountMin            = "OfferRandomizer_Pricing_DiscountMin"
	keyDiscountMax            = "OfferRandomizer_Pricing_DiscountMax"
	keyMarkupMin              = "OfferRandomizer_Pricing_MarkupMin"
	keyMarkupMax              = "OfferRandomizer_Pricing_MarkupMax"
	keyFulfillProbability     = "OfferRandomizer_Quantity_FulfillProbability"
	keyReducedProbability     = "OfferRandomizer_Quantity_ReducedProbability"
	keyUnavailableProbability = "OfferRandomizer_Quantity_UnavailableProbability"
	keyReducedMin             = "OfferRandomizer_Quantity_ReducedMin"
	keyReducedMax             = "OfferRandomizer_Quantity_ReducedMax"
	keyCommonProbability      = "OfferRandomizer_Delivery_CommonProbability"
	keyCommonDays             = "OfferRandomizer_Delivery_CommonDays"
	keyAdditionalDaysBase     = "OfferRandomizer_Delivery_AdditionalDaysBase"
	keyAdditionalDaysRange    = "OfferRandomizer_Delivery_AdditionalDaysRange"
	keySameDayPercentage      = "OfferRandomizer_Delivery_SameDaySingleDeliveryPercentage"
)

type PricingOptions struct {
	BaseProbability     float64
	DiscountProbability float64
	// MarkupProbability is informational: whatever is not base or discount is markup.
	MarkupProbability float64
	DiscountMin       float64
	DiscountMax       float64
	MarkupMin         float64
	MarkupMax         float64
}

type QuantityOptions struct {
	FulfillProbability float64
	ReducedProbability float64
	// UnavailableProbability is informational: whatever is not fulfilled or reduced is unavailable.
	UnavailableProbability float64
	ReducedMin             float64
	ReducedMax             float64
}

type DeliveryOptions struct {
	CommonProbability float64
	// CommonDays always holds exactly two values.
	CommonDays          [2]int
	AdditionalDaysBase  int
	AdditionalDaysRange int
	// SameDaySingleDeliveryPercentage is in percent, clamped to [0, 100] when used.
	SameDaySingleDeliveryPercentage float64
}

// RandomizerOptions is an immutable snapshot of the offer randomizer configuration.
type RandomizerOptions struct {
	TransportationCost decimal.Decimal
	Pricing            PricingOptions
	Quantity           QuantityOptions
	Delivery           DeliveryOptions
}

func DefaultRandomizerOptions() RandomizerOptions {
	return RandomizerOptions{
		TransportationCost: decimal.NewFromInt(30),
		Pricing: PricingOptions{
			BaseProbability:     0.5,
			DiscountProbability: 0.2,
			MarkupProbability:   0.3,
			DiscountMin:         0.01,
			DiscountMax:         0.10,
			MarkupMin:           0.05,
			MarkupMax:           0.25,
		},
		Quantity: QuantityOptions{
			FulfillProbability:     0.8,
			ReducedProbability:     0.1,
			UnavailableProbability: 0.1,
			ReducedMin:             0.01,
			ReducedMax:             0.30,
		},
		Delivery: DeliveryOptions{
			CommonProbability:               0.7,
			CommonDays:                      [2]int{2, 3},
			AdditionalDaysBase:              4,
			AdditionalDaysRange:             4,
			SameDaySingleDeliveryPercentage: 80,
		},
	}
}

// LoadRandomizerOptions takes a snapshot of the current settings, falling back to the
// defaults for missing or unparsable values.
func LoadRandomizerOptions(settings ISettingsService) RandomizerOptions {
	o := DefaultRandomizerOptions()

	o.TransportationCost = settings.GetDecimal(keyTransportationCost, o.TransportationCost)

	o.Pricing.BaseProbability = settings.GetFloat64(keyBaseProbability, o.Pricing.BaseProbability)
	o.Pricing.DiscountProbability = settings.GetFloat64(keyDiscountProbability, o.Pricing.DiscountProbability)
	o.Pricing.MarkupProbability = settings.GetFloat64(keyMarkupProbability, o.Pricing.MarkupProbability)
	o.Pricing.DiscountMin = settings.GetFloat64(keyDiscountMin, o.Pricing.DiscountMin)
	o.Pricing.DiscountMax = settings.GetFloat64(keyDiscountMax, o.Pricing.DiscountMax)
	o.Pricing.MarkupMin = settings.GetFloat64(keyMarkupMin, o.Pricing.MarkupMin)
	o.Pricing.MarkupMax = settings.GetFloat64(keyMarkupMax, o.Pricing.MarkupMax)

	o.Quantity.FulfillProbability = settings.GetFloat64(keyFulfillProbability, o.Quantity.FulfillProbability)
	o.Quantity.ReducedProbability = settings.GetFloat64(keyReducedProbability, o.Quantity.ReducedProbability)
	o.Quantity.UnavailableProbability = settings.GetFloat64(keyUnavailableProbability, o.Quantity.UnavailableProbability)
	o.Quantity.ReducedMin = settings.GetFloat64(keyReducedMin, o.Quantity.ReducedMin)
	o.Quantity.ReducedMax = settings.GetFloat64(keyReducedMax, o.Quantity.ReducedMax)

	o.Delivery.CommonProbability = settings.GetFloat64(keyCommonProbability, o.Delivery.CommonProbability)
	days := settings.GetIntList(keyCommonDays, o.Delivery.CommonDays[:])
	if len(days) == 1 {
		o.Delivery.CommonDays = [2]int{days[0], days[0]}
	} else {
		o.Delivery.CommonDays = [2]int{days[0], days[1]}
	}
	o.Delivery.AdditionalDaysBase = settings.GetInt(keyAdditionalDaysBase, o.Delivery.AdditionalDaysBase)
	o.Delivery.AdditionalDaysRange = settings.GetInt(keyAdditionalDaysRange, o.Delivery.AdditionalDaysRange)
	o.Delivery.SameDaySingleDeliveryPercentage = settings.GetFloat64(keySameDayPercentage, o.Delivery.SameDaySingleDeliveryPercentage)

	return o
}

// sameDayProbability converts the configured percentage into a probability in [0, 1].
func (o RandomizerOptions) sameDayProbability() float64 {
	return math.Min(math.Max(o.Delivery.SameDaySingleDeliveryPercentage, 0), 100) / 100
}

// Settings renders the snapshot back into its settings keys.
func (o RandomizerOptions) Settings() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		keyTransportationCost:     o.TransportationCost.StringFixed(2),
		keyBaseProbability:        f(o.Pricing.BaseProbability),
		keyDiscountProbability:    f(o.Pricing.DiscountProbability),
		keyMarkupProbability:      f(o.Pricing.MarkupProbability),
		keyDiscountMin:            f(o.Pricing.DiscountMin),
		keyDiscountMax:            f(o.Pricing.DiscountMax),
		keyMarkupMin:              f(o.Pricing.MarkupMin),
		keyMarkupMax:              f(o.Pricing.MarkupMax),
		keyFulfillProbability:     f(o.Quantity.FulfillProbability),
		keyReducedProbability:     f(o.Quantity.ReducedProbability),
		keyUnavailableProbability: f(o.Quantity.UnavailableProbability),
		keyReducedMin:             f(o.Quantity.ReducedMin),
		keyReducedMax:             f(o.Quantity.ReducedMax),
		keyCommonProbability:      f(o.Delivery.CommonProbability),
		keyCommonDays: strings.Join(lo.Map(o.Delivery.CommonDays[:], func(d int, _ int) string {
			return strconv.Itoa(d)
		}), ","),
		keyAdditionalDaysBase:  strconv.Itoa(o.Delivery.AdditionalDaysBase),
		keyAdditionalDaysRange: strconv.Itoa(o.Delivery.AdditionalDaysRange),
		keySameDayPercentage:   f(o.Delivery.SameDaySingleDeliveryPercentage),
	}
}
