package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	d "github.com/aydjay12/RentUp-sub001/internal/checkout/domain"
)

var ErrSessionNotFound = errors.New("checkout session not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Ledger is the durable half of checkout idempotency. Consumers define the
// interface; the postgres implementation below satisfies it.
type Ledger interface {
	CreateSession(ctx context.Context, session *d.Session) error
	GetSession(ctx context.Context, sessionID string) (*d.Session, error)
	CompleteSession(ctx context.Context, sessionID string, eventPayload []byte) (alreadyProcessed bool, err error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID int64) error
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host, cred.Port, cred.User, cred.Password, cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// DB exposes the shared connection for the coupon and orders stores that
// live in the same database.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateSession(ctx context.Context, session *d.Session) error {
	snapshot, err := json.Marshal(session.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkout_sessions (id, user_id, cart_snapshot, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`,
		session.ID, session.UserID, snapshot, d.SessionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (*d.Session, error) {
	var (
		session  d.Session
		snapshot []byte
		status   string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, cart_snapshot, status, created_at, updated_at
		FROM checkout_sessions WHERE id = $1`, sessionID).
		Scan(&session.ID, &session.UserID, &snapshot, &status, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	if err := json.Unmarshal(snapshot, &session.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}
	session.Status = d.SessionStatus(status)
	return &session, nil
}

// CompleteSession flips the session to COMPLETED and enqueues its outbox
// event in one transaction. The guarded UPDATE makes the transition race-safe:
// whichever caller loses the race observes alreadyProcessed without
// re-running any side effect.
func (r *Repository) CompleteSession(ctx context.Context, sessionID string, eventPayload []byte) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		d.SessionStatusCompleted, sessionID, d.SessionStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete checkout session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if rows == 0 {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM checkout_sessions WHERE id = $1`, sessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrSessionNotFound
		}
		if err != nil {
			return false, fmt.Errorf("failed to check session status: %w", err)
		}
		if d.SessionStatus(status) == d.SessionStatusCompleted {
			return true, nil
		}
		return false, fmt.Errorf("checkout session %s in unexpected status %s", sessionID, status)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkout_outbox (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, now())`,
		sessionID, "checkout.completed", eventPayload)
	if err != nil {
		return false, fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return false, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM checkout_outbox
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventProcessed(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE checkout_outbox SET processed_at = now() WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event processed: %w", err)
	}
	return nil
}
