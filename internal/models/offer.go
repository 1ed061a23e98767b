package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

// remember to add new statuses to the validOfferStatuses map
const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
)

var validOfferStatuses = map[OfferStatus]struct{}{
	OfferStatusPending:  {},
	OfferStatusAccepted: {},
}

func ToOfferStatus(s string) (OfferStatus, error) {
	status := OfferStatus(s)
	if _, ok := validOfferStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid offer status")
}

// Offer is a persisted quote for one or more products from one supplier.
// It is created Pending and only ever moves to Accepted.
type Offer struct {
	ID                 uuid.UUID       `bson:"_id" json:"offerId"`
	SupplierID         int             `bson:"supplier_id" json:"supplierId"`
	TransportationCost decimal.Decimal `bson:"transportation_cost" json:"transportationCost"`
	Timestamp          time.Time       `bson:"timestamp" json:"timestamp"`
	Email              string          `bson:"email,omitempty" json:"email,omitempty"`
	Status             OfferStatus     `bson:"status" json:"status"`
	Details            []OfferDetail   `bson:"details" json:"offerDetails"`
}

// OfferDetail is one product line of an offer.
// Quantity never exceeds RequestedQuantity and is 0 whenever Available is false.
type OfferDetail struct {
	ProductName          string          `bson:"product_name" json:"productName"`
	BasePrice            decimal.Decimal `bson:"base_price" json:"basePrice"`
	Price                decimal.Decimal `bson:"price" json:"price"`
	RequestedQuantity    int             `bson:"requested_quantity" json:"requestedQuantity"`
	Quantity             int             `bson:"quantity" json:"quantity"`
	DeliveryDurationDays int             `bson:"delivery_duration_days" json:"deliveryDurationDays"`
	Available            bool            `bson:"available" json:"available"`
}

// FindDetail returns the line for productName, matched case-insensitively.
func (o *Offer) FindDetail(productName string) (*OfferDetail, bool) {
	key := NormalizeName(productName)
	for i := range o.Details {
		if NormalizeName(o.Details[i].ProductName) == key {
			return &o.Details[i], true
		}
	}
	return nil, false
}

// OfferRequest is the transient input of an inquiry.
type OfferRequest struct {
	SupplierID     int                  `json:"supplierId"`
	RequestDetails []OfferRequestDetail `json:"requestDetails"`
	Email          *string              `json:"email,omitempty"`
}

type OfferRequestDetail struct {
	Product           string `json:"product"`
	RequestedQuantity int    `json:"requestedQuantity"`
}
