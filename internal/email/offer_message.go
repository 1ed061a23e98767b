package email

import (
	"fmt"
	"html"
	"mime"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

const (
	OfferSubject    = "Offer"
	offerTimeLayout = "2006-01-02 15:04:05Z"
	noLines         = "No offer lines present."
	noAddress       = "Address not available."
)

// Countries as the supplier records spell them. Anything else is tried as an ISO region code.
var countryRegions = map[string]string{
	"austria":        "AT",
	"germany":        "DE",
	"italy":          "IT",
	"thailand":       "TH",
	"switzerland":    "CH",
	"uk":             "GB",
	"united kingdom": "GB",
	"usa":            "US",
	"united states":  "US",
}

// CurrencyFor returns the currency of the supplier's country, EUR when unknown.
func CurrencyFor(supplier *models.Supplier) currency.Unit {
	if supplier == nil {
		return currency.EUR
	}
	country := strings.ToLower(strings.TrimSpace(supplier.Country))
	code, ok := countryRegions[country]
	if !ok {
		code = country
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return currency.EUR
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return currency.EUR
	}
	return unit
}

// OfferSummary holds the rendered parts of an offer mail. The same parts fill the AI
// prompt template and the plain fallback text.
type OfferSummary struct {
	SupplierID         int
	SupplierCompany    string
	SupplierAddress    string
	TransportationCost string
	Timestamp          string
	Details            string
	UnavailableNotice  string
}

// SummarizeOffer renders offer for mailing. supplier may be nil when it could not be loaded.
func SummarizeOffer(offer *models.Offer, supplier *models.Supplier) OfferSummary {
	unit := CurrencyFor(supplier)
	money := func(d decimal.Decimal) string {
		return fmt.Sprintf("%s %s", unit, d.StringFixed(2))
	}

	lines := lo.Map(offer.Details, func(d models.OfferDetail, _ int) string {
		total := d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
		return fmt.Sprintf("- Product: %s; Requested: %d; Offered: %d; Price: %s; Total: %s; Delivery: %d days",
			d.ProductName, d.RequestedQuantity, d.Quantity, money(d.Price), money(total), d.DeliveryDurationDays)
	})
	details := noLines
	if len(lines) > 0 {
		details = strings.Join(lines, "\n")
	}

	summary := OfferSummary{
		SupplierID:         offer.SupplierID,
		SupplierCompany:    fmt.Sprintf("Supplier %d", offer.SupplierID),
		SupplierAddress:    noAddress,
		TransportationCost: money(offer.TransportationCost),
		Timestamp:          offer.Timestamp.UTC().Format(offerTimeLayout),
		Details:            details,
		UnavailableNotice:  unavailableNotice(offer.Details),
	}
	if supplier != nil {
		summary.SupplierCompany = supplier.CompanyName
		summary.SupplierAddress = supplierAddress(supplier)
	}
	return summary
}

// Variables maps the template placeholders to their values.
func (s OfferSummary) Variables() map[string]string {
	return map[string]string{
		"supplierId":         fmt.Sprint(s.SupplierID),
		"supplierCompany":    s.SupplierCompany,
		"supplierAddress":    s.SupplierAddress,
		"transportationCost": s.TransportationCost,
		"timestamp":          s.Timestamp,
		"details":            s.Details,
		"unavailableNotice":  s.UnavailableNotice,
	}
}

// PlainText is the deterministic mail body.
func (s OfferSummary) PlainText() string {
	sections := []string{
		fmt.Sprintf("Offer from supplier %d at %s", s.SupplierID, s.Timestamp),
		"Transportation Cost: " + s.TransportationCost,
		"Details:",
		s.Details,
	}
	if s.UnavailableNotice != "" {
		sections = append(sections, s.UnavailableNotice)
	}
	sections = append(sections, "", "Supplier:", s.SupplierCompany, s.SupplierAddress)
	return strings.Join(sections, "\n")
}

func unavailableNotice(details []models.OfferDetail) string {
	names := lo.FilterMap(details, func(d models.OfferDetail, _ int) (string, bool) {
		return d.ProductName, d.Quantity <= 0 && strings.TrimSpace(d.ProductName) != ""
	})
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("Note: %s is currently unavailable for delivery.", names[0])
	default:
		return fmt.Sprintf("Note: %s are currently unavailable for delivery.", strings.Join(names, ", "))
	}
}

func supplierAddress(s *models.Supplier) string {
	cityLine := strings.Join(nonBlank(s.City, s.Region, s.PostalCode), ", ")
	return strings.Join(nonBlank(s.Address, cityLine, s.Country), "\n")
}

func nonBlank(parts ...string) []string {
	return lo.Filter(parts, func(p string, _ int) bool { return strings.TrimSpace(p) != "" })
}

// BuildHTMLMessage assembles a complete RFC 5322 message whose body is text rendered as HTML.
func BuildHTMLMessage(from string, to []string, subject, text string, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	sb.WriteString("\r\n") // End of headers
	sb.WriteString("<html><body>\r\n")
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(html.EscapeString(strings.TrimRight(line, "\r")))
		sb.WriteString("<br>\r\n")
	}
	sb.WriteString("</body></html>\r\n")
	return []byte(sb.String())
}
