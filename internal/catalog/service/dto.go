package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductCreateDto is the input of Create. Price is kept as text so form input
// can be reported field by field instead of failing the whole request body.
type ProductCreateDto struct {
	Name        string    `json:"name"        validate:"notblank,max=100"`
	Description string    `json:"description" validate:"max=500"`
	Price       PriceText `json:"price"       validate:"required,price_number,price_gt0,price_scale,price_max"`
}

// ProductDto is a product as seen by clients.
type ProductDto struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// CreateResult is returned by a successful Create.
type CreateResult struct {
	Product ProductDto `json:"product"`
	Message string     `json:"message"`
}

// PriceText is a price as typed by a person. It accepts JSON numbers and strings.
type PriceText string

func (p *PriceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(strings.TrimSpace(s))
		return nil
	}
	*p = PriceText(data)
	return nil
}

// Decimal parses the price. A comma is accepted as decimal separator.
func (p PriceText) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(strings.TrimSpace(string(p)), ",", ".", 1))
}

// PriceFrom formats a decimal price as PriceText.
func PriceFrom(d decimal.Decimal) PriceText {
	return PriceText(d.String())
}
