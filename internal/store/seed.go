package store

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

// Seeder is the subset of Store that Seed writes to.
type Seeder interface {
	ProductStore
	SupplierStore
	SettingsStore
}

// SeedSettings are the randomizer settings a fresh installation starts with.
var SeedSettings = []models.Setting{
	{Key: "OfferRandomizer_TransportationCost", Value: "30.00"},
	{Key: "OfferRandomizer_Pricing_BaseProbability", Value: "0.4"},
	{Key: "OfferRandomizer_Pricing_DiscountProbability", Value: "0.25"},
	{Key: "OfferRandomizer_Pricing_MarkupProbability", Value: "0.35"},
	{Key: "OfferRandomizer_Pricing_DiscountMin", Value: "0.01"},
	{Key: "OfferRandomizer_Pricing_DiscountMax", Value: "0.10"},
	{Key: "OfferRandomizer_Pricing_MarkupMin", Value: "0.05"},
	{Key: "OfferRandomizer_Pricing_MarkupMax", Value: "0.25"},
	{Key: "OfferRandomizer_Quantity_FulfillProbability", Value: "0.8"},
	{Key: "OfferRandomizer_Quantity_ReducedProbability", Value: "0.1"},
	{Key: "OfferRandomizer_Quantity_UnavailableProbability", Value: "0.1"},
	{Key: "OfferRandomizer_Quantity_ReducedMin", Value: "0.01"},
	{Key: "OfferRandomizer_Quantity_ReducedMax", Value: "0.30"},
	{Key: "OfferRandomizer_Delivery_CommonProbability", Value: "0.7"},
	{Key: "OfferRandomizer_Delivery_CommonDays", Value: "2,3"},
	{Key: "OfferRandomizer_Delivery_AdditionalDaysBase", Value: "4"},
	{Key: "OfferRandomizer_Delivery_AdditionalDaysRange", Value: "4"},
	{Key: "OfferRandomizer_Delivery_SameDaySingleDeliveryPercentage", Value: "80"},
}

// SeedProducts is the product catalog with base prices.
var SeedProducts = []models.Product{
	{ID: 1, Name: "Wiener Schnitzel", BasePrice: decimal.RequireFromString("14.00")},
	{ID: 2, Name: "Germknoedel", BasePrice: decimal.RequireFromString("7.00")},
	{ID: 3, Name: "Kaiserschmarrn", BasePrice: decimal.RequireFromString("8.00")},
	{ID: 4, Name: "Weisswurst mit Brezn", BasePrice: decimal.RequireFromString("10.00")},
	{ID: 5, Name: "Schweinshaxe mit Kraut", BasePrice: decimal.RequireFromString("15.00")},
	{ID: 6, Name: "Pizza Napoli", BasePrice: decimal.RequireFromString("9.00")},
	{ID: 7, Name: "Arancini Napoletana", BasePrice: decimal.RequireFromString("6.00")},
	{ID: 8, Name: "Pad Ka Prao", BasePrice: decimal.RequireFromString("5.00")},
	{ID: 9, Name: "Green Curry", BasePrice: decimal.RequireFromString("7.00")},
}

var SeedSuppliers = []models.Supplier{
	{
		ID:           1,
		CompanyName:  "Wiener Feinkost GmbH",
		ContactName:  "Anna Stöger",
		ContactTitle: "Einkaufsleiterin",
		Address:      "Graben 21",
		City:         "Vienna",
		Region:       "Wien",
		PostalCode:   "1010",
		Country:      "Austria",
		Phone:        "+43 1 234 5678",
		Email:        "anna.stoeger@wiener-feinkost.at",
		HomePage:     "https://wiener-feinkost.at",
		Products:     []string{"Wiener Schnitzel", "Germknoedel", "Kaiserschmarrn"},
	},
	{
		ID:           2,
		CompanyName:  "Muenchner Gewuerze GmbH",
		ContactName:  "Juergen Mueller",
		ContactTitle: "Verkaufsleiter",
		Address:      "Marienplatz 1",
		City:         "Muenchen",
		Region:       "Bayern",
		PostalCode:   "80331",
		Country:      "Germany",
		Phone:        "+49 89 123456",
		Email:        "info@muenchner-gewuerze.de",
		HomePage:     "https://muenchner-gewuerze.de",
		Products:     []string{"Weisswurst mit Brezn", "Schweinshaxe mit Kraut"},
	},
	{
		ID:           3,
		CompanyName:  "Partenope Gastronomia S.r.l.",
		ContactName:  "Antonio Bianchi",
		ContactTitle: "Manager Operativo",
		Address:      "Corso Umberto I 15",
		City:         "Napoli",
		Region:       "Campania",
		PostalCode:   "80132",
		Country:      "Italy",
		Phone:        "+39 081 555 7890",
		Email:        "antonio.bianchi@partenope.it",
		HomePage:     "https://pizza-napoli.it",
		Products:     []string{"Pizza Napoli", "Arancini Napoletana"},
	},
	{
		ID:           4,
		CompanyName:  "Same, same Foods Co., Ltd.",
		ContactName:  "Alek Nohep",
		ContactTitle: "Operations Manager",
		Address:      "Sukhumvit Rd. 45",
		City:         "Bangkok",
		PostalCode:   "10100",
		Country:      "Thailand",
		Phone:        "+66 2 123 4567",
		Email:        "alek.nohep@bangkokfoods.th",
		HomePage:     "https://bangkokfoods.th",
		Products:     []string{"Pad Ka Prao", "Green Curry"},
	},
}

// Seed writes the catalog, the suppliers and the default settings. It can run on every start:
// products and suppliers are upserted, settings are only added when missing so that values
// changed through the settings API survive a restart.
func Seed(ctx context.Context, s Seeder) error {
	for i := range SeedProducts {
		p := SeedProducts[i]
		if err := s.UpsertProduct(ctx, &p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	for i := range SeedSuppliers {
		sup := SeedSuppliers[i]
		sup.Products = append([]string(nil), sup.Products...)
		if err := s.UpsertSupplier(ctx, &sup); err != nil {
			return fmt.Errorf("seed supplier %d: %w", sup.ID, err)
		}
	}
	for _, setting := range SeedSettings {
		if err := s.EnsureSetting(ctx, setting.Key, setting.Value); err != nil {
			return fmt.Errorf("seed setting %s: %w", setting.Key, err)
		}
	}
	log.Printf("Seeded %d products, %d suppliers and %d settings", len(SeedProducts), len(SeedSuppliers), len(SeedSettings))
	return nil
}
