package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Money is a decimal amount. It is stored as a string in MongoDB so that
// values like 15.00 round-trip exactly instead of going through float64.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromString parses a decimal string into Money
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

// MarshalBSONValue implements bson.ValueMarshaler
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(m.Decimal.String())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(t, data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}
