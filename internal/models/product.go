package models

import "github.com/shopspring/decimal"

// Product is immutable reference data; BasePrice is the randomizer's input.
type Product struct {
	ID        int             `bson:"_id" json:"productId"`
	Name      string          `bson:"name" json:"name"`
	BasePrice decimal.Decimal `bson:"base_price" json:"basePrice"`
}
