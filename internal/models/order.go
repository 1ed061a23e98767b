package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexander-kastil/talk-low-code-process/internal/utils"
)

// Order is a placed order, optionally referencing the offer it was built from.
type Order struct {
	RequestID  string        `json:"requestId"`
	SupplierID int           `json:"supplierId"`
	Date       time.Time     `json:"date"`
	Details    []OrderDetail `json:"orderDetails"`
	OfferID    string        `json:"offerId,omitempty"`
}

type OrderDetail struct {
	ProductName string          `bson:"product_name" json:"productName"`
	Price       decimal.Decimal `bson:"price" json:"price"`
	Quantity    int             `bson:"quantity" json:"quantity"`
}

// Subtotal is the sum of price x quantity over all lines.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range o.Details {
		total = total.Add(d.Price.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	return total
}

// OrderConfirmation is returned to the caller after a successful placement.
type OrderConfirmation struct {
	Message            string           `json:"message"`
	RequestID          string           `json:"requestId"`
	SupplierID         int              `json:"supplierId"`
	Date               time.Time        `json:"date"`
	OfferID            string           `json:"offerId,omitempty"`
	TransportationCost *decimal.Decimal `json:"transportationCost,omitempty"`
	Total              decimal.Decimal  `json:"total"`
	OrderNumber        string           `json:"orderNumber,omitempty"`
}

// OrderRecord is the journal entry written for every placed order.
type OrderRecord struct {
	ID         utils.SixID     `bson:"_id" json:"orderNumber"`
	RequestID  string          `bson:"request_id" json:"requestId"`
	SupplierID int             `bson:"supplier_id" json:"supplierId"`
	OfferID    string          `bson:"offer_id,omitempty" json:"offerId,omitempty"`
	Date       time.Time       `bson:"date" json:"date"`
	Details    []OrderDetail   `bson:"details" json:"orderDetails"`
	Total      decimal.Decimal `bson:"total" json:"total"`
	CreatedAt  time.Time       `bson:"created_at" json:"createdAt"`
}
