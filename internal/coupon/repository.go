package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	ListActive(ctx context.Context) ([]Coupon, error)
}

type pgRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, discount_percentage, description, valid_from, valid_until
		FROM coupons
		WHERE code = $1`, code)

	c, err := scanCoupon(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return c, nil
}

func (r *pgRepository) ListActive(ctx context.Context) ([]Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, discount_percentage, description, valid_from, valid_until
		FROM coupons
		WHERE (valid_from IS NULL OR valid_from <= now())
		  AND (valid_until IS NULL OR valid_until >= now())
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}
	return coupons, nil
}

func scanCoupon(scan func(dest ...any) error) (*Coupon, error) {
	var (
		c   Coupon
		pct string
	)
	if err := scan(&c.Code, &pct, &c.Description, &c.ValidFrom, &c.ValidUntil); err != nil {
		return nil, err
	}

	// NUMERIC comes back as text; decimal keeps it exact.
	d, err := decimal.NewFromString(pct)
	if err != nil {
		return nil, fmt.Errorf("bad discount percentage %q: %w", pct, err)
	}
	c.DiscountPercentage = d
	return &c, nil
}
