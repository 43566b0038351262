package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// OpenSQLite opens (or creates) a SQLite database and ensures the payments
// and users tables exist. Pass ":memory:" for an in-memory database.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	// One connection: keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set wal mode")
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create tables")
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			package_name TEXT NOT NULL DEFAULT '',
			score TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			fullname TEXT NOT NULL DEFAULT '',
			number TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "exec %q", stmt[:40])
		}
	}
	return nil
}

// SQLiteStore is the file backed TransactionStore used for local runs and tests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// timeLayout is fixed width so that ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const paymentColumns = `id, amount, currency, status, name, email, package_name, score, created_at, updated_at`

func (s *SQLiteStore) Create(ctx context.Context, tx *models.Transaction) error {
	var score any
	if tx.Score.Valid {
		score = tx.Score.Decimal.String()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payments (`+paymentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		tx.TransactionID, tx.Amount.String(), tx.Currency, string(tx.Status),
		tx.Name, tx.Email, tx.PackageName, score,
		tx.CreatedAt.UTC().Format(timeLayout), tx.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return errors.Wrap(err, "insert payment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrTransactionExists
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	tx, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get payment %s", id)
	}
	return tx, nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Transaction, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status), time.Now().UTC().Format(timeLayout), id, string(models.StatusPending),
	)
	if err != nil {
		return nil, false, errors.Wrapf(err, "update payment %s", id)
	}
	n, _ := res.RowsAffected()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if n == 1 {
		return current, true, nil
	}
	if current.Status == status {
		return current, false, nil
	}
	return current, false, models.ErrStatusConflict
}

func (s *SQLiteStore) SetScore(ctx context.Context, id string, score decimal.Decimal) (*models.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET score = ?, updated_at = ? WHERE id = ?`,
		score.String(), time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "update score %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.ErrTransactionNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Transaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query payments")
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanPayment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Transaction, error) {
	var (
		tx                   models.Transaction
		amount, status       string
		score                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&tx.TransactionID, &amount, &tx.Currency, &status,
		&tx.Name, &tx.Email, &tx.PackageName, &score, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tx.Status = models.PaymentStatus(status)
	tx.Amount, _ = decimal.NewFromString(amount)
	if score.Valid {
		if d, err := decimal.NewFromString(score.String); err == nil {
			tx.Score = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	tx.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	tx.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &tx, nil
}

const userColumns = `id, email, fullname, number, address, created_at, updated_at`

func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(email) DO UPDATE SET
			fullname = CASE WHEN excluded.fullname <> '' THEN excluded.fullname ELSE users.fullname END,
			number = CASE WHEN excluded.number <> '' THEN excluded.number ELSE users.number END,
			address = CASE WHEN excluded.address <> '' THEN excluded.address ELSE users.address END,
			updated_at = excluded.updated_at`,
		user.ID, user.Email, user.FullName, user.Number, user.Address,
		user.CreatedAt.UTC().Format(timeLayout), user.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}

	saved, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, user.Email))
	if err != nil {
		return nil, errors.Wrap(err, "read saved user")
	}
	return saved, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                 models.User
		createdAt, updatedAt string
	)
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Number, &user.Address, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	user.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &user, nil
}
