// Package service implements the product catalog: create, list, delete and observe.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/feed"
	"github.com/unabstore/shop/internal/catalog/store"
	"github.com/unabstore/shop/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultRefreshTimeout = 5 * time.Second
	meterName             = "github.com/unabstore/shop/internal/catalog/service"
)

// ProductService defines the catalog operations offered to clients.
type ProductService interface {
	// Create validates the product locally and stores it in the collection.
	// Returns a *ValidationError without any remote call when the input is invalid.
	Create(ctx context.Context, product ProductCreateDto) (*CreateResult, error)

	// List returns every product of the collection.
	// On failure it returns an empty slice together with an error wrapping ErrListProducts.
	List(ctx context.Context) ([]ProductDto, error)

	// Delete removes a product by ID. Deleting a missing product is a success.
	Delete(ctx context.Context, id string) error

	// Observe subscribes to collection snapshots, starting with the current one.
	Observe(ctx context.Context) (*Subscription, error)
}

// Service implements ProductService over a remote collection and a change feed.
type Service struct {
	collection     store.Collection
	feed           feed.Feed
	validate       *validator.Validate
	logger         *slog.Logger
	refreshTimeout time.Duration
	created        metric.Int64Counter
	now            func() time.Time

	feedMu          sync.Mutex
	unsubscribeFeed func()

	// mu guards subscription registration, delivery and cancellation.
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	seq    uint64
	closed bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRefreshTimeout bounds the collection reads made after a change.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// WithMeter sets the meter used for catalog metrics.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if c, err := m.Int64Counter("catalog_products_created",
			metric.WithDescription("Number of products added to the catalog")); err == nil {
			s.created = c
		}
	}
}

// NewService creates a new catalog service. A nil feed means changes stay in process.
func NewService(collection store.Collection, f feed.Feed, opts ...Option) *Service {
	if f == nil {
		f = feed.NewLocal()
	}
	s := &Service{
		collection:     collection,
		feed:           f,
		validate:       newValidator(),
		logger:         slog.Default(),
		refreshTimeout: defaultRefreshTimeout,
		now:            time.Now,
		subs:           make(map[uint64]*Subscription),
	}
	WithMeter(otel.Meter(meterName))(s)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "catalog", "collection", collection.Name())
	return s
}

// Create validates and stores a new product, then signals the change.
func (s *Service) Create(ctx context.Context, dto ProductCreateDto) (*CreateResult, error) {
	price, err := validateProduct(s.validate, dto)
	if err != nil {
		return nil, err
	}

	p, err := s.collection.Add(ctx, store.NewProduct{
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
		Price:       price,
	})
	if err != nil {
		return nil, &cerrors.RemoteError{Op: cerrors.ErrCreateProduct, Cause: err}
	}
	if s.created != nil {
		s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", s.collection.Name())))
	}

	s.publish(ctx, events.ProductChangedEvent{
		Kind:      events.ProductCreated,
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     p.Price.String(),
	})

	return &CreateResult{Product: toDto(*p), Message: MsgProductAdded}, nil
}

// List reads the whole collection in one round trip.
func (s *Service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.collection.FindAll(ctx)
	if err != nil {
		return []ProductDto{}, &cerrors.RemoteError{Op: cerrors.ErrListProducts, Cause: err}
	}
	return toDtos(products), nil
}

// Delete removes a product. A malformed ID cannot name a stored product, so it is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &cerrors.ValidationError{Fields: []cerrors.FieldError{{Field: "id", Message: MsgIDRequired}}}
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		s.logger.DebugContext(ctx, "delete of malformed id ignored", "id", id)
		return nil
	}
	if err := s.collection.Delete(ctx, uid); err != nil {
		return &cerrors.RemoteError{Op: cerrors.ErrDeleteProduct, Cause: err}
	}
	s.publish(ctx, events.ProductChangedEvent{Kind: events.ProductDeleted, ProductID: uid.String()})
	return nil
}

// publish signals a change. The write has already happened, so the signal outlives
// the caller's context. A lost signal only delays observers and the write still succeeds.
func (s *Service) publish(ctx context.Context, change feed.Change) {
	change.Collection = s.collection.Name()
	change.At = s.now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
	defer cancel()
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "failed to publish change", "kind", change.Kind, "product_id", change.ProductID, "error", err)
	}
}

func toDto(p store.Product) ProductDto {
	return ProductDto{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

// toDtos converts stored records, skipping records without an ID.
func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, 0, len(products))
	for _, p := range products {
		if p.ID == uuid.Nil {
			continue
		}
		dtos = append(dtos, toDto(p))
	}
	return dtos
}
