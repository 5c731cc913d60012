package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"catalog-admin/internal/products"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockRepo struct {
	listFn   func(ctx context.Context) ([]products.Product, error)
	createFn func(ctx context.Context, in products.Input, image string) (products.Product, error)
	updateFn func(ctx context.Context, id string, in products.Input, image *string) (products.Product, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockRepo) List(ctx context.Context) ([]products.Product, error) {
	return m.listFn(ctx)
}
func (m *mockRepo) Create(ctx context.Context, in products.Input, image string) (products.Product, error) {
	return m.createFn(ctx, in, image)
}
func (m *mockRepo) Update(ctx context.Context, id string, in products.Input, image *string) (products.Product, error) {
	return m.updateFn(ctx, id, in, image)
}
func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockImages struct {
	saved []string
	path  string
	err   error
}

func (m *mockImages) Save(_ context.Context, img products.Image) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, img.Filename)
	return m.path, nil
}

type mockPublisher struct {
	events []products.ProductEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event products.ProductEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func newCounters() Counters {
	return Counters{
		Created: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_created", Help: "t"}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_updated", Help: "t"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_deleted", Help: "t"}),
	}
}

func newTestService(repo Repository, images ImageStore, pub Publisher, logs *bytes.Buffer) *Service {
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	return New(repo, images, pub, logger, newCounters())
}

func defaultRepo() *mockRepo {
	return &mockRepo{
		listFn: func(_ context.Context) ([]products.Product, error) { return []products.Product{}, nil },
		createFn: func(_ context.Context, in products.Input, image string) (products.Product, error) {
			return products.Product{
				ID: "p1", Name: in.Name, Description: in.Description,
				Price: in.Price, Quantity: in.Quantity, Image: image,
			}, nil
		},
		updateFn: func(_ context.Context, id string, in products.Input, image *string) (products.Product, error) {
			p := products.Product{
				ID: id, Name: in.Name, Description: in.Description,
				Price: in.Price, Quantity: in.Quantity, Image: "/uploads/old.png",
			}
			if image != nil {
				p.Image = *image
			}
			return p, nil
		},
		deleteFn: func(_ context.Context, _ string) error { return nil },
	}
}

func widget() products.Input {
	return products.Input{Name: "Widget", Description: "A widget", Price: 9.99, Quantity: 10}
}

func TestCreateProduct(t *testing.T) {
	errDB := errors.New("db down")

	tests := []struct {
		name      string
		input     products.Input
		image     *products.Image
		repoErr   error
		imagesErr error
		wantErr   error
		wantImage string
		wantSaved int
	}{
		{
			name:      "success without image",
			input:     widget(),
			wantImage: "",
		},
		{
			name:      "success with image",
			input:     widget(),
			image:     &products.Image{Filename: "w.png", Content: strings.NewReader("x")},
			wantImage: "/uploads/1-a.png",
			wantSaved: 1,
		},
		{
			name:    "empty name",
			input:   products.Input{Description: "d", Price: 1, Quantity: 1},
			image:   &products.Image{Filename: "w.png", Content: strings.NewReader("x")},
			wantErr: products.ErrMissingFields,
		},
		{
			name:    "empty description",
			input:   products.Input{Name: "n", Price: 1, Quantity: 1},
			wantErr: products.ErrMissingFields,
		},
		{
			name:    "zero price",
			input:   products.Input{Name: "n", Description: "d", Quantity: 1},
			wantErr: products.ErrMissingFields,
		},
		{
			name:    "zero quantity",
			input:   products.Input{Name: "n", Description: "d", Price: 1},
			wantErr: products.ErrMissingFields,
		},
		{
			name:    "NaN price counts as missing",
			input:   products.Input{Name: "n", Description: "d", Price: math.NaN(), Quantity: 1},
			image:   &products.Image{Filename: "w.png", Content: strings.NewReader("x")},
			wantErr: products.ErrMissingFields,
		},
		{
			name:    "infinite price",
			input:   products.Input{Name: "n", Description: "d", Price: math.Inf(1), Quantity: 1},
			image:   &products.Image{Filename: "w.png", Content: strings.NewReader("x")},
			wantErr: products.ErrInvalidInput,
		},
		{
			name:      "image write failure",
			input:     widget(),
			image:     &products.Image{Filename: "w.png", Content: strings.NewReader("x")},
			imagesErr: products.ErrImageTooLarge,
			wantErr:   products.ErrImageTooLarge,
		},
		{
			name:    "repo error is wrapped",
			input:   widget(),
			repoErr: errDB,
			wantErr: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			created := 0
			base := repo.createFn
			repo.createFn = func(ctx context.Context, in products.Input, image string) (products.Product, error) {
				created++
				if tt.repoErr != nil {
					return products.Product{}, tt.repoErr
				}
				return base(ctx, in, image)
			}
			images := &mockImages{path: "/uploads/1-a.png", err: tt.imagesErr}
			pub := &mockPublisher{}
			svc := newTestService(repo, images, pub, &bytes.Buffer{})

			product, err := svc.CreateProduct(context.Background(), tt.input, tt.image)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error wrapping %v, got %v", tt.wantErr, err)
				}
				if errors.Is(tt.wantErr, products.ErrMissingFields) || errors.Is(tt.wantErr, products.ErrInvalidInput) {
					if created != 0 {
						t.Fatal("repo called despite validation failure")
					}
					if len(images.saved) != 0 {
						t.Fatal("image written despite validation failure")
					}
				}
				if len(pub.events) != 0 {
					t.Fatalf("want no events, got %v", pub.events)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product.ID == "" {
				t.Fatal("expected assigned id")
			}
			if product.Name != tt.input.Name || product.Description != tt.input.Description ||
				product.Price != tt.input.Price || product.Quantity != tt.input.Quantity {
				t.Fatalf("fields mismatch: %+v", product)
			}
			if product.Image != tt.wantImage {
				t.Fatalf("want image %q, got %q", tt.wantImage, product.Image)
			}
			if len(images.saved) != tt.wantSaved {
				t.Fatalf("want %d saved images, got %d", tt.wantSaved, len(images.saved))
			}
			if len(pub.events) != 1 || pub.events[0].EventType != products.EventCreated {
				t.Fatalf("want event %q, got %v", products.EventCreated, pub.events)
			}
		})
	}
}

func TestCreateProduct_InsertFailureLogsOrphanedUpload(t *testing.T) {
	repo := defaultRepo()
	repo.createFn = func(_ context.Context, _ products.Input, _ string) (products.Product, error) {
		return products.Product{}, errors.New("insert failed")
	}
	logs := &bytes.Buffer{}
	svc := newTestService(repo, &mockImages{path: "/uploads/1-a.png"}, &mockPublisher{}, logs)

	_, err := svc.CreateProduct(context.Background(), widget(), &products.Image{Filename: "a.png", Content: strings.NewReader("x")})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(logs.String(), "orphaned upload") || !strings.Contains(logs.String(), "/uploads/1-a.png") {
		t.Fatalf("want orphaned upload warning, got logs: %s", logs.String())
	}
}

func TestUpdateProduct(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		input     products.Input
		image     *products.Image
		repoErr   error
		wantErr   error
		wantImage string
		wantEvent string
	}{
		{
			name:      "keeps image when none supplied",
			id:        "p1",
			input:     products.Input{Name: "Widget", Description: "A widget", Price: 19.99, Quantity: 10},
			wantImage: "/uploads/old.png",
			wantEvent: products.EventUpdated,
		},
		{
			name:      "replaces image when supplied",
			id:        "p1",
			input:     widget(),
			image:     &products.Image{Filename: "new.png", Content: strings.NewReader("x")},
			wantImage: "/uploads/2-b.png",
			wantEvent: products.EventUpdated,
		},
		{
			name:    "not found",
			id:      "missing",
			input:   widget(),
			repoErr: products.ErrNotFound,
			wantErr: products.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			if tt.repoErr != nil {
				repo.updateFn = func(_ context.Context, _ string, _ products.Input, _ *string) (products.Product, error) {
					return products.Product{}, tt.repoErr
				}
			}
			pub := &mockPublisher{}
			svc := newTestService(repo, &mockImages{path: "/uploads/2-b.png"}, pub, &bytes.Buffer{})

			product, err := svc.UpdateProduct(context.Background(), tt.id, tt.input, tt.image)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error %v, got %v", tt.wantErr, err)
				}
				if len(pub.events) != 0 {
					t.Fatalf("want no events, got %v", pub.events)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product.Price != tt.input.Price {
				t.Fatalf("want price %v, got %v", tt.input.Price, product.Price)
			}
			if product.Image != tt.wantImage {
				t.Fatalf("want image %q, got %q", tt.wantImage, product.Image)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != tt.wantEvent {
				t.Fatalf("want event %q, got %v", tt.wantEvent, pub.events)
			}
		})
	}
}

func TestUpdateProduct_PassesNilImageWithoutUpload(t *testing.T) {
	repo := defaultRepo()
	var gotImage *string
	repo.updateFn = func(_ context.Context, id string, in products.Input, image *string) (products.Product, error) {
		gotImage = image
		return products.Product{ID: id}, nil
	}
	images := &mockImages{path: "/uploads/x.png"}
	svc := newTestService(repo, images, &mockPublisher{}, &bytes.Buffer{})

	if _, err := svc.UpdateProduct(context.Background(), "p1", widget(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotImage != nil {
		t.Fatalf("want nil image, got %q", *gotImage)
	}
	if len(images.saved) != 0 {
		t.Fatalf("want no image writes, got %d", len(images.saved))
	}
}

func TestUpdateProduct_RejectsNonFinitePrice(t *testing.T) {
	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		repo := defaultRepo()
		updated := 0
		repo.updateFn = func(_ context.Context, id string, _ products.Input, _ *string) (products.Product, error) {
			updated++
			return products.Product{ID: id}, nil
		}
		images := &mockImages{path: "/uploads/x.png"}
		pub := &mockPublisher{}
		svc := newTestService(repo, images, pub, &bytes.Buffer{})

		in := widget()
		in.Price = price
		_, err := svc.UpdateProduct(context.Background(), "p1", in, &products.Image{Filename: "a.png", Content: strings.NewReader("x")})
		if !errors.Is(err, products.ErrInvalidInput) {
			t.Fatalf("price %v: want ErrInvalidInput, got %v", price, err)
		}
		if updated != 0 || len(images.saved) != 0 || len(pub.events) != 0 {
			t.Fatalf("price %v: want no writes, got updates=%d images=%d events=%d", price, updated, len(images.saved), len(pub.events))
		}
	}
}

func TestDeleteProduct(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		repoErr   error
		wantErr   error
		wantEvent string
	}{
		{
			name:      "success",
			id:        "p42",
			wantEvent: products.EventDeleted,
		},
		{
			name:    "not found",
			id:      "p999",
			repoErr: products.ErrNotFound,
			wantErr: products.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			repo.deleteFn = func(_ context.Context, _ string) error {
				return tt.repoErr
			}
			pub := &mockPublisher{}
			svc := newTestService(repo, &mockImages{}, pub, &bytes.Buffer{})

			err := svc.DeleteProduct(context.Background(), tt.id)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != tt.wantEvent || pub.events[0].ProductID != tt.id {
				t.Fatalf("want event %q for %s, got %v", tt.wantEvent, tt.id, pub.events)
			}
		})
	}
}

func TestListProducts(t *testing.T) {
	repo := defaultRepo()
	repo.listFn = func(_ context.Context) ([]products.Product, error) {
		return []products.Product{{ID: "a"}, {ID: "b"}}, nil
	}
	svc := newTestService(repo, &mockImages{}, &mockPublisher{}, &bytes.Buffer{})

	items, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
}

func TestListProducts_RepoError(t *testing.T) {
	errDB := errors.New("db down")
	repo := defaultRepo()
	repo.listFn = func(_ context.Context) ([]products.Product, error) { return nil, errDB }
	svc := newTestService(repo, &mockImages{}, &mockPublisher{}, &bytes.Buffer{})

	if _, err := svc.ListProducts(context.Background()); !errors.Is(err, errDB) {
		t.Fatalf("want error wrapping %v, got %v", errDB, err)
	}
}

func TestCreateProduct_PublishFail_StillReturnsProduct(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(defaultRepo(), &mockImages{}, pub, &bytes.Buffer{})

	product, err := svc.CreateProduct(context.Background(), widget(), nil)
	if err != nil {
		t.Fatalf("expected no error despite publish failure, got: %v", err)
	}
	if product.Name != "Widget" {
		t.Fatalf("want name Widget, got %q", product.Name)
	}
}

func TestCounters(t *testing.T) {
	svc := newTestService(defaultRepo(), &mockImages{}, &mockPublisher{}, &bytes.Buffer{})
	ctx := context.Background()

	_, _ = svc.CreateProduct(ctx, widget(), nil)
	_, _ = svc.CreateProduct(ctx, products.Input{}, nil)
	_, _ = svc.UpdateProduct(ctx, "p1", widget(), nil)
	_ = svc.DeleteProduct(ctx, "p1")

	if got := testutil.ToFloat64(svc.counters.Created); got != 1 {
		t.Fatalf("want created 1, got %v", got)
	}
	if got := testutil.ToFloat64(svc.counters.Updated); got != 1 {
		t.Fatalf("want updated 1, got %v", got)
	}
	if got := testutil.ToFloat64(svc.counters.Deleted); got != 1 {
		t.Fatalf("want deleted 1, got %v", got)
	}
}
