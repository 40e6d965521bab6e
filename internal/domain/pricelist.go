package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PriceList is one shop's full current offering as uploaded by a seller
type PriceList struct {
	Shop       string              `json:"shop" yaml:"shop" validate:"required,max=128"`
	URL        string              `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Categories []PriceListCategory `json:"categories" yaml:"categories" validate:"dive"`
	Goods      []PriceListGood     `json:"goods" yaml:"goods" validate:"dive"`
}

// PriceListCategory is a category entry with its supplier-assigned id
type PriceListCategory struct {
	ID   int64  `json:"id" yaml:"id" validate:"required,gt=0"`
	Name string `json:"name" yaml:"name" validate:"required,max=128"`
}

// PriceListGood is one offered product
type PriceListGood struct {
	ID         int64        `json:"id" yaml:"id" validate:"required"`
	Category   int64        `json:"category" yaml:"category" validate:"required,gt=0"`
	Model      string       `json:"model" yaml:"model" validate:"max=128"`
	Name       string       `json:"name" yaml:"name" validate:"required,max=128"`
	Price      *int         `json:"price" yaml:"price" validate:"required,gte=0,lte=2147483647"`
	PriceRRC   *int         `json:"price_rrc,omitempty" yaml:"price_rrc,omitempty" validate:"omitempty,gte=0,lte=2147483647"`
	PriceRRP   *int         `json:"price_rrp,omitempty" yaml:"price_rrp,omitempty" validate:"omitempty,gte=0,lte=2147483647"`
	Quantity   *int         `json:"quantity" yaml:"quantity" validate:"required,gte=0,lte=2147483647"`
	Parameters ParameterMap `json:"parameters" yaml:"parameters" validate:"dive,keys,required,max=128,endkeys,max=128"`
}

// RecommendedPrice returns the recommended retail price, accepting either key
func (g PriceListGood) RecommendedPrice() int {
	if g.PriceRRP != nil {
		return *g.PriceRRP
	}
	if g.PriceRRC != nil {
		return *g.PriceRRC
	}
	return 0
}

// ImportSummary counts what one reconciliation touched
type ImportSummary struct {
	ShopID     int64 `json:"shop_id"`
	Categories int   `json:"categories"`
	Products   int   `json:"products"`
	Listings   int   `json:"listings"`
	Parameters int   `json:"parameters"`
}

// ParameterMap maps a parameter name to its value. Price lists carry values
// such as 6.5 or 128 unquoted, so every scalar is kept as its literal text.
type ParameterMap map[string]string

// UnmarshalYAML accepts a mapping of scalars
func (m *ParameterMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("parameters: expected a mapping, got %s", nodeKind(value))
	}
	out := make(ParameterMap, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return fmt.Errorf("parameters: line %d: name and value must be scalars", key.Line)
		}
		out[key.Value] = val.Value
	}
	*m = out
	return nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
