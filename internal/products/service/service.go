package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog-admin/internal/products"

	"github.com/prometheus/client_golang/prometheus"
)

type Repository interface {
	List(ctx context.Context) ([]products.Product, error)
	Create(ctx context.Context, in products.Input, image string) (products.Product, error)
	Update(ctx context.Context, id string, in products.Input, image *string) (products.Product, error)
	Delete(ctx context.Context, id string) error
}

type ImageStore interface {
	Save(ctx context.Context, img products.Image) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, event products.ProductEvent) error
}

type Counters struct {
	Created prometheus.Counter
	Updated prometheus.Counter
	Deleted prometheus.Counter
}

type Service struct {
	repo      Repository
	images    ImageStore
	publisher Publisher
	logger    *slog.Logger
	counters  Counters
}

func New(repo Repository, images ImageStore, publisher Publisher, logger *slog.Logger, counters Counters) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		publisher: publisher,
		logger:    logger,
		counters:  counters,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]products.Product, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo list: %w", err)
	}
	return items, nil
}

// CreateProduct validates before touching the upload directory, so a rejected
// request writes nothing. The image write and the insert are not atomic.
func (s *Service) CreateProduct(ctx context.Context, in products.Input, img *products.Image) (products.Product, error) {
	if err := in.Validate(); err != nil {
		return products.Product{}, err
	}

	var imagePath string
	if img != nil {
		saved, err := s.images.Save(ctx, *img)
		if err != nil {
			return products.Product{}, fmt.Errorf("save image: %w", err)
		}
		imagePath = saved
	}

	product, err := s.repo.Create(ctx, in, imagePath)
	if err != nil {
		s.warnOrphan(imagePath, err)
		return products.Product{}, fmt.Errorf("repo create: %w", err)
	}

	s.publish(ctx, products.EventCreated, product.ID, product.Name)
	s.counters.Created.Inc()
	return product, nil
}

// UpdateProduct replaces the four editable fields. Without a new image the
// stored path is kept; with one, the previous file stays on disk.
func (s *Service) UpdateProduct(ctx context.Context, id string, in products.Input, img *products.Image) (products.Product, error) {
	if err := in.CheckFinite(); err != nil {
		return products.Product{}, err
	}

	var imagePath *string
	if img != nil {
		saved, err := s.images.Save(ctx, *img)
		if err != nil {
			return products.Product{}, fmt.Errorf("save image: %w", err)
		}
		imagePath = &saved
	}

	product, err := s.repo.Update(ctx, id, in, imagePath)
	if err != nil {
		if imagePath != nil {
			s.warnOrphan(*imagePath, err)
		}
		return products.Product{}, fmt.Errorf("repo update: %w", err)
	}

	s.publish(ctx, products.EventUpdated, product.ID, product.Name)
	s.counters.Updated.Inc()
	return product, nil
}

// DeleteProduct removes the record only; its image file is left in place.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("repo delete: %w", err)
	}

	s.publish(ctx, products.EventDeleted, id, "")
	s.counters.Deleted.Inc()
	return nil
}

func (s *Service) publish(ctx context.Context, eventType, id, name string) {
	if err := s.publisher.Publish(ctx, products.ProductEvent{
		EventType: eventType,
		ProductID: id,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("publish "+eventType+" event failed",
			"product_id", id,
			"error", err,
		)
	}
}

func (s *Service) warnOrphan(imagePath string, cause error) {
	if imagePath == "" {
		return
	}
	s.logger.Warn("orphaned upload",
		"image", imagePath,
		"error", cause,
	)
}
