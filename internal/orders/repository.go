package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrDuplicateSession = errors.New("order for session already exists")

const OrderStatusConfirmed = "CONFIRMED"

type Order struct {
	ID          uuid.UUID
	SessionID   string
	UserID      string
	TotalAmount float64
	Currency    string
	Status      string
	CreatedAt   time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
}

type pgRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) OrderRepository {
	return &pgRepository{db: db}
}

// CreateOrder inserts the confirmed order. The unique session_id constraint
// turns redelivered completion events into ErrDuplicateSession.
func (r *pgRepository) CreateOrder(ctx context.Context, order *Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, user_id, total_amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		order.ID, order.SessionID, order.UserID, order.TotalAmount, order.Currency, order.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}
