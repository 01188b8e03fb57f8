package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Deterministic ID namespace for expenses derived from stock movements.
var expenseNamespace = uuid.MustParse("9f2c7b4e-1a63-4c0d-8e5f-2b7d9a114c30")

// RepositoryPort abstracts expense persistence for the service.
type RepositoryPort interface {
	EnsureCategory(ctx context.Context, name, description string) (ExpenseCategory, error)
	ListCategories(ctx context.Context) ([]ExpenseCategory, error)
	InsertIfAbsent(ctx context.Context, record ExpenseRecord) (ExpenseRecord, bool, error)
	GetExpense(ctx context.Context, id uuid.UUID) (ExpenseRecord, error)
	SetStatus(ctx context.Context, id uuid.UUID, status ExpenseStatus) error
	ListExpenses(ctx context.Context, filter ListFilter) ([]ExpenseRecord, int, error)
}

// Service owns expense categories and records.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExpenseID derives the deterministic record ID for a movement reference.
func ExpenseID(refKind string, refID int64) uuid.UUID {
	return uuid.NewSHA1(expenseNamespace, []byte(fmt.Sprintf("%s:%d", refKind, refID)))
}

// RecordFromMovement creates the expense for a stock movement. Safe to call
// more than once for the same movement: re-delivery finds the existing row
// and returns it unchanged.
func (s *Service) RecordFromMovement(ctx context.Context, input ExpenseInput) (ExpenseRecord, error) {
	if input.RefKind == "" || input.RefID <= 0 {
		return ExpenseRecord{}, fmt.Errorf("%w: movement reference required", ErrInvalidExpense)
	}
	if input.Category == "" {
		return ExpenseRecord{}, fmt.Errorf("%w: category required", ErrInvalidExpense)
	}
	if input.Amount.IsNegative() {
		return ExpenseRecord{}, fmt.Errorf("%w: amount must be >= 0", ErrInvalidExpense)
	}

	category, err := s.repo.EnsureCategory(ctx, input.Category, "")
	if err != nil {
		return ExpenseRecord{}, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	record := ExpenseRecord{
		ID:          ExpenseID(input.RefKind, input.RefID),
		CategoryID:  category.ID,
		Date:        date,
		Description: input.Description,
		Amount:      input.Amount,
		Supplier:    input.Supplier,
		RefKind:     input.RefKind,
		RefID:       input.RefID,
		ConsumerRef: input.ConsumerRef,
		Status:      ExpenseActive,
	}
	stored, created, err := s.repo.InsertIfAbsent(ctx, record)
	if err != nil {
		return ExpenseRecord{}, err
	}
	if !created {
		s.logger.Debug("expense already recorded",
			slog.String("ref_kind", input.RefKind), slog.Int64("ref_id", input.RefID))
	}
	return stored, nil
}

// Void marks an expense as voided after its source movement was deleted.
// Voiding an already-voided or missing expense is a no-op so re-delivered
// void events stay harmless.
func (s *Service) Void(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SetStatus(ctx, id, ExpenseVoided)
	if err == nil || errors.Is(err, ErrExpenseNotFound) {
		return nil
	}
	return err
}

// Get returns one expense record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (ExpenseRecord, error) {
	return s.repo.GetExpense(ctx, id)
}

// List returns expense records matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ExpenseRecord, int, error) {
	return s.repo.ListExpenses(ctx, filter)
}

// ListCategories returns all expense categories.
func (s *Service) ListCategories(ctx context.Context) ([]ExpenseCategory, error) {
	return s.repo.ListCategories(ctx)
}
