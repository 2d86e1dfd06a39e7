package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) InsertOrder(ctx context.Context, order *domain.Order) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}
	contactJSON, err := json.Marshal(order.Contact)
	if err != nil {
		return fmt.Errorf("failed to marshal order contact: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal order address: %w", err)
	}

	query := `INSERT INTO orders (id, user_id, lines, total_amount, currency, contact, address, payment_mode, payment_ref, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		linesJSON,
		order.TotalAmount,
		order.Currency,
		contactJSON,
		addressJSON,
		order.PaymentMode,
		nullString(order.PaymentRef),
		order.CreatedAt)
	if err != nil {
		return mapWriteError("insert order", err)
	}
	return nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, mode domain.PaymentMode, paymentRef string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.PaymentMode
	err = tx.QueryRowContext(ctx, `SELECT payment_mode FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}

	if !domain.CanTransitionTo(current, mode) {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current, mode)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET payment_mode = $2, payment_ref = $3, updated_at = NOW() WHERE id = $1`,
		id, mode, nullString(paymentRef))
	if err != nil {
		return mapWriteError("update order status", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order status: %w", err)
	}
	return nil
}

const selectOrders = `SELECT id, user_id, lines, total_amount, currency, contact, address, payment_mode, payment_ref, created_at, updated_at
	FROM orders`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, selectOrders+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrders+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	return collectOrders(rows)
}

func (r *Repository) ListAwaitingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		selectOrders+` WHERE payment_mode = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`,
		domain.PaymentModeOnlineAwaiting, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query awaiting orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		order                            domain.Order
		linesJSON, contactJSON, addrJSON []byte
		paymentRef                       sql.NullString
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&linesJSON,
		&order.TotalAmount,
		&order.Currency,
		&contactJSON,
		&addrJSON,
		&order.PaymentMode,
		&paymentRef,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(linesJSON, &order.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	if err := json.Unmarshal(contactJSON, &order.Contact); err != nil {
		return nil, fmt.Errorf("unmarshal order contact: %w", err)
	}
	if err := json.Unmarshal(addrJSON, &order.Address); err != nil {
		return nil, fmt.Errorf("unmarshal order address: %w", err)
	}
	order.PaymentRef = paymentRef.String
	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "uq_orders_payment_ref" {
			return ErrDuplicatePaymentRef
		}
		return ErrDuplicateOrder
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
