// Package messaging names the catalog event subjects and the publishing contract
// shared by the feed drivers and the notification worker.
package messaging

import "context"

// CatalogStream is the JetStream stream holding catalog events.
const CatalogStream = "CATALOG"

// CatalogExchange is the RabbitMQ fanout exchange carrying catalog events.
const CatalogExchange = "ex.catalog"

// Subjects of catalog events. The last token is the change kind.
const (
	ProductsSubjectPrefix  = "catalog.products"
	ProductsAllSubject     = ProductsSubjectPrefix + ".>"
	ProductsCreatedSubject = ProductsSubjectPrefix + ".created"
	ProductsDeletedSubject = ProductsSubjectPrefix + ".deleted"
)

// Event is a message with a routing subject and an encoded body.
type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identified is an Event that carries a stable ID for broker side deduplication.
type Identified interface {
	MessageID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
