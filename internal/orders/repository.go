package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/pkg/db"
	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// Repository persists orders. The payment id carries a unique index, so the
// database is the final arbiter of idempotency even when two deliveries of
// the same payment race past the application-level lookup.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByPaymentID returns the order settled for paymentID, or nil when no
// settlement has been recorded yet.
func (r *Repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "find order by payment id")
	}
	return &order, nil
}

// FindByID loads a single order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "find order")
	}
	return &order, nil
}

// FindOrCreate settles paymentID exactly once. When an order for the payment
// already exists it is returned with created=false and build is never called.
// A unique-index violation during insert means a concurrent delivery won the
// race; the winner's row is re-read and returned.
func (r *Repository) FindOrCreate(ctx context.Context, paymentID string, build func() (*models.Order, error)) (*models.Order, bool, error) {
	existing, err := r.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	order, err := build()
	if err != nil {
		return nil, false, err
	}
	order.PaymentID = paymentID
	assignIDs(order)

	// The insert runs under its own savepoint when the repository is already
	// transaction-bound. Postgres aborts the whole transaction on a statement
	// error, so without the savepoint the winner re-read below could never run.
	createErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if createErr != nil {
		if db.IsUniqueViolation(createErr) {
			winner, ferr := r.FindByPaymentID(ctx, paymentID)
			if ferr != nil {
				return nil, false, ferr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodePersistence, createErr, "create order")
	}
	return order, true, nil
}

func assignIDs(order *models.Order) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
}
