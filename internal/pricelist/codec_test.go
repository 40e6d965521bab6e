package pricelist

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeYAML = `
shop: Acme
categories:
  - id: 1
    name: Tools
goods:
  - id: 100
    category: 1
    model: D-1
    name: Drill
    price: 1000
    price_rrc: 1200
    quantity: 5
    parameters:
      color: red
      power: 6.5
      "Объём (ГБ)": 128
`

func TestDecode_YAML(t *testing.T) {
	list, err := Decode(strings.NewReader(acmeYAML))
	require.NoError(t, err)

	assert.Equal(t, "Acme", list.Shop)
	require.Len(t, list.Categories, 1)
	assert.Equal(t, int64(1), list.Categories[0].ID)
	require.Len(t, list.Goods, 1)

	good := list.Goods[0]
	assert.Equal(t, "Drill", good.Name)
	assert.Equal(t, 1000, *good.Price)
	assert.Equal(t, 1200, good.RecommendedPrice())
	assert.Equal(t, "6.5", good.Parameters["power"])
	assert.Equal(t, "128", good.Parameters["Объём (ГБ)"])

	assert.NoError(t, Validate(list))
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"shop": "Acme", "url": "https://acme.example/prices.yaml", ` +
		`"categories": [{"id": 1, "name": "Tools"}], ` +
		`"goods": [{"id": 100, "category": 1, "name": "Drill", "price": 10, "price_rrp": 12, "quantity": 0, ` +
		`"parameters": {"color": "red"}}]}`

	list, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example/prices.yaml", list.URL)
	assert.Equal(t, 12, list.Goods[0].RecommendedPrice())
	assert.Equal(t, 0, *list.Goods[0].Quantity)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty document", doc: "", wantErr: ErrEmptyDocument},
		{name: "not a mapping", doc: "- a\n- b\n", wantErr: ErrMalformed},
		{name: "nested parameter value", doc: "shop: A\ngoods:\n  - name: x\n    parameters:\n      color: [red]\n", wantErr: ErrMalformed},
		{name: "parameters as list", doc: "shop: A\ngoods:\n  - name: x\n    parameters: [1, 2]\n", wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "missing shop",
			doc:       "categories: []\ngoods: []\n",
			wantField: "Shop",
		},
		{
			name:      "category without name",
			doc:       "shop: A\ncategories:\n  - id: 1\n",
			wantField: "Name",
		},
		{
			name:      "good without price",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price_rrp: 1\n    quantity: 1\n",
			wantField: "Price",
		},
		{
			name:      "good without recommended price",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price: 1\n    quantity: 1\n",
			wantField: "PriceRRP",
		},
		{
			name:      "negative quantity",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price: 1\n    price_rrc: 1\n    quantity: -1\n",
			wantField: "Quantity",
		},
		{
			name:      "price beyond integer column range",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price: 3000000000\n    price_rrc: 1\n    quantity: 1\n",
			wantField: "Price",
		},
		{
			name:      "recommended price beyond integer column range",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price: 1\n    price_rrp: 3000000000\n    quantity: 1\n",
			wantField: "PriceRRP",
		},
		{
			name:      "quantity beyond integer column range",
			doc:       "shop: A\ngoods:\n  - id: 1\n    category: 1\n    name: x\n    price: 1\n    price_rrc: 1\n    quantity: 3000000000\n",
			wantField: "Quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidPriceList)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))

			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrEmptyDocument)
}
