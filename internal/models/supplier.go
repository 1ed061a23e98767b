package models

// Supplier is reference data. Products holds the names of the products the supplier can deliver.
type Supplier struct {
	ID           int      `bson:"_id" json:"supplierId"`
	CompanyName  string   `bson:"company_name" json:"companyName"`
	ContactName  string   `bson:"contact_name" json:"contactName"`
	ContactTitle string   `bson:"contact_title" json:"contactTitle"`
	Address      string   `bson:"address" json:"address"`
	City         string   `bson:"city" json:"city"`
	Region       string   `bson:"region" json:"region"`
	PostalCode   string   `bson:"postal_code" json:"postalCode"`
	Country      string   `bson:"country" json:"country"`
	Phone        string   `bson:"phone" json:"phone"`
	Email        string   `bson:"email" json:"email"`
	HomePage     string   `bson:"home_page" json:"homePage"`
	Products     []string `bson:"products" json:"availableProducts"`
}

// Supplies reports whether the supplier carries the product, ignoring case and surrounding blanks.
func (s *Supplier) Supplies(product string) bool {
	key := NormalizeName(product)
	if key == "" {
		return false
	}
	for _, p := range s.Products {
		if NormalizeName(p) == key {
			return true
		}
	}
	return false
}
