package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/unabstore/shop/pkg/messaging"
)

// ProductChangeKind tells what happened to a product.
type ProductChangeKind string

const (
	ProductCreated ProductChangeKind = "created"
	ProductDeleted ProductChangeKind = "deleted"
)

// ProductChangedEvent signals that a product collection changed.
// Name and Price are filled for created products only.
type ProductChangedEvent struct {
	Kind       ProductChangeKind `json:"kind"`
	ProductID  string            `json:"product_id"`
	Collection string            `json:"collection"`
	Name       string            `json:"name,omitempty"`
	Price      string            `json:"price,omitempty"`
	At         time.Time         `json:"at"`
}

func (e ProductChangedEvent) Subject() string {
	return messaging.ProductsSubjectPrefix + "." + string(e.Kind)
}

// MessageID is unique per change of a product in a collection.
func (e ProductChangedEvent) MessageID() string {
	if e.ProductID == "" || e.At.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s:%d", e.Collection, e.Kind, e.ProductID, e.At.UnixNano())
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeProductChanged parses a payload produced by ProductChangedEvent.Payload.
func DecodeProductChanged(data []byte) (ProductChangedEvent, error) {
	var e ProductChangedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ProductChangedEvent{}, fmt.Errorf("failed to decode product event: %w", err)
	}
	switch e.Kind {
	case ProductCreated, ProductDeleted:
	default:
		return ProductChangedEvent{}, fmt.Errorf("unknown product event kind %q", e.Kind)
	}
	return e, nil
}
