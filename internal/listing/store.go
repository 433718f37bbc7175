package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aydjay12/RentUp-sub001/internal/cart/service"
)

// Store reads residence listing prices. Listing management itself is owned by
// the admin CRUD surface; the checkout core only ever reads prices from it.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UnitPrice(ctx context.Context, itemID string) (float64, error) {
	var price float64
	err := s.db.QueryRowContext(ctx,
		`SELECT price FROM residences WHERE id = $1`, itemID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, service.ErrUnknownItem
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read listing price: %w", err)
	}
	return price, nil
}
