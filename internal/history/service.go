package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nutriscan/nutriscan/internal/product"
	"github.com/nutriscan/nutriscan/internal/shared"
)

// ErrInvalidLimit is returned for a negative page size.
var ErrInvalidLimit = fmt.Errorf("%w: limit must not be negative", shared.ErrInvalidInput)

// Service applies validation and paging policy over a Repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the history service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// newValidator adds the "barcode" tag: 8 to 13 ASCII digits, nothing else.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
		return product.IsBarcode(fl.Field().String())
	})
	return v
}

// WithClock overrides the time source used for stamping.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create validates and persists a scan. ScannedAt defaults to now.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	rec := in.record()
	rec.Barcode = strings.TrimSpace(rec.Barcode)
	if err := s.validate.Struct(rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s", shared.ErrInvalidInput, describe(err))
	}

	now := s.now().UTC()
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = now
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	saved, err := s.repo.Insert(ctx, rec)
	if err != nil {
		s.logger.Error("save scan", slog.String("barcode", rec.Barcode), slog.Any("error", err))
		return Record{}, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return saved, nil
}

// List returns the most recent scans. A zero limit selects DefaultListLimit,
// a negative one is rejected and anything above MaxListLimit is clamped.
func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	switch {
	case limit < 0:
		return nil, ErrInvalidLimit
	case limit == 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.Error("list scans", slog.Int("limit", limit), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// DeleteByID removes a scan. Deleting an unknown id succeeds.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		s.logger.Error("delete scan", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return nil
}

// RecentBarcodes lists distinct barcodes of the latest scans.
func (s *Service) RecentBarcodes(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	barcodes, err := s.repo.RecentBarcodes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return barcodes, nil
}

// PruneBefore deletes scans older than cutoff and reports how many went.
func (s *Service) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return n, nil
}

// Ping reports store reachability.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
