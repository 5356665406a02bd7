package catalogv1

import (
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// Product is the wire form of a catalog product. Price is decimal text.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       string
}

// Snapshot is one message of the ObserveProducts stream.
type Snapshot struct {
	Products []Product
	Error    string
}

func (p Product) fields() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
	}
}

// ProductToStruct encodes a product as a Struct.
func ProductToStruct(p Product) (*structpb.Struct, error) {
	return structpb.NewStruct(p.fields())
}

// ProductFromStruct decodes a product. The price may be sent as a number or as text.
func ProductFromStruct(s *structpb.Struct) Product {
	f := s.GetFields()
	return Product{
		ID:          f["id"].GetStringValue(),
		Name:        f["name"].GetStringValue(),
		Description: f["description"].GetStringValue(),
		Price:       priceText(f["price"]),
	}
}

func priceText(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_StringValue:
		return k.StringValue
	default:
		return ""
	}
}

// SnapshotToStruct encodes a list of products, with an optional error message.
func SnapshotToStruct(s Snapshot) (*structpb.Struct, error) {
	products := make([]any, len(s.Products))
	for i, p := range s.Products {
		products[i] = p.fields()
	}
	m := map[string]any{"products": products}
	if s.Error != "" {
		m["error"] = s.Error
	}
	return structpb.NewStruct(m)
}

// SnapshotFromStruct decodes a list of products.
func SnapshotFromStruct(s *structpb.Struct) Snapshot {
	f := s.GetFields()
	values := f["products"].GetListValue().GetValues()
	snap := Snapshot{
		Products: make([]Product, 0, len(values)),
		Error:    f["error"].GetStringValue(),
	}
	for _, v := range values {
		if ps := v.GetStructValue(); ps != nil {
			snap.Products = append(snap.Products, ProductFromStruct(ps))
		}
	}
	return snap
}
