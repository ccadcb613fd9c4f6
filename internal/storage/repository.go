package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the canonical store. Scalar fields that queries
// filter or sort on live in real columns; nested lists (tags, budget
// lines, payment history, goal logs) are stored as JSON documents.
// Timestamps and dates are RFC3339 strings in UTC.
type SQLiteRepository struct {
	db *sql.DB
}

var _ services.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

// --- transactions ---

const transactionColumns = `id, owner_id, type, amount_cents, description, category, date,
	payment_method, tags, recurring, deleted, version, created_at, updated_at`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}
	return tx, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f services.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ?`
	args := []any{f.OwnerID}
	if !f.IncludeDeleted {
		query += ` AND deleted = 0`
	}
	if !f.Start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatTime(f.Start))
	}
	if !f.End.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatTime(f.End))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY date DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListDueRecurringTransactions(ctx context.Context, asOf time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE recurring_next_due IS NOT NULL AND recurring_next_due <= ? AND deleted = 0`,
		formatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tags, err := marshalJSON(tx.Tags)
	if err != nil {
		return core.Transaction{}, err
	}
	var recurring, nextDue sql.NullString
	if tx.Recurring != nil {
		s, err := marshalJSON(tx.Recurring)
		if err != nil {
			return core.Transaction{}, err
		}
		recurring = sql.NullString{String: s, Valid: true}
		nextDue = sql.NullString{String: formatTime(tx.Recurring.NextDueDate), Valid: true}
	}

	if tx.Version == 0 {
		tx.Version = 1
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO transactions (`+transactionColumns+`, recurring_next_due)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, tx.OwnerID, string(tx.Type), tx.Amount.Cents, tx.Description, tx.Category,
			formatTime(tx.Date), tx.PaymentMethod, tags, recurring,
			boolToInt(tx.Deleted), tx.Version, formatTime(tx.CreatedAt), formatTime(tx.UpdatedAt),
			nextDue)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
		}
		return tx, nil
	}

	prev := tx.Version
	tx.Version++
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, amount_cents = ?, description = ?, category = ?,
		 date = ?, payment_method = ?, tags = ?, recurring = ?, recurring_next_due = ?,
		 deleted = ?, version = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		string(tx.Type), tx.Amount.Cents, tx.Description, tx.Category,
		formatTime(tx.Date), tx.PaymentMethod, tags, recurring, nextDue,
		boolToInt(tx.Deleted), tx.Version, formatTime(tx.UpdatedAt),
		tx.ID, tx.OwnerID, prev)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := r.checkAffected(ctx, res, "transactions", tx.ID, tx.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                     core.Transaction
		typ                    string
		date, created, updated string
		tags                   string
		recurring              sql.NullString
		deleted                int
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &typ, &tx.Amount.Cents, &tx.Description, &tx.Category,
		&date, &tx.PaymentMethod, &tags, &recurring, &deleted, &tx.Version, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Deleted = deleted != 0
	if tx.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	if tx.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if tx.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
		return core.Transaction{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	if recurring.Valid {
		var rule core.RecurrenceRule
		if err := json.Unmarshal([]byte(recurring.String), &rule); err != nil {
			return core.Transaction{}, fmt.Errorf("unmarshal recurrence rule: %w", err)
		}
		tx.Recurring = &rule
	}
	return tx, nil
}

// --- budgets ---

const budgetColumns = `id, owner_id, name, month, year, categories, total_budget_cents,
	total_spent_cents, is_active, version, created_at, updated_at`

func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
	}
	return b, err
}

func (r *SQLiteRepository) GetBudgetByPeriod(ctx context.Context, ownerID string, month, year int) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? AND month = ? AND year = ?`,
		ownerID, month, year)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("%w: budget for %d/%d", core.ErrNotFound, month, year)
	}
	return b, err
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY year DESC, month DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	categories, err := marshalJSON(b.Categories)
	if err != nil {
		return core.Budget{}, err
	}

	if b.Version == 0 {
		b.Version = 1
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.OwnerID, b.Name, b.Month, b.Year, categories,
			b.TotalBudget.Cents, b.TotalSpent.Cents, boolToInt(b.IsActive),
			b.Version, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
		if err != nil {
			return core.Budget{}, fmt.Errorf("insert budget: %w", err)
		}
		return b, nil
	}

	prev := b.Version
	b.Version++
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, categories = ?, total_budget_cents = ?,
		 total_spent_cents = ?, is_active = ?, version = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		b.Name, categories, b.TotalBudget.Cents, b.TotalSpent.Cents,
		boolToInt(b.IsActive), b.Version, formatTime(b.UpdatedAt),
		b.ID, b.OwnerID, prev)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := r.checkAffected(ctx, res, "budgets", b.ID, b.OwnerID); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	return r.deleteRow(ctx, "budgets", id, ownerID)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                core.Budget
		categories       string
		active           int
		created, updated string
	)
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Month, &b.Year, &categories,
		&b.TotalBudget.Cents, &b.TotalSpent.Cents, &active, &b.Version, &created, &updated)
	if err != nil {
		return core.Budget{}, err
	}
	b.IsActive = active != 0
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return core.Budget{}, fmt.Errorf("unmarshal budget categories: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// --- bills ---

const billColumns = `id, owner_id, name, amount_cents, category, due_date, frequency,
	next_due_date, end_date, is_active, is_paid, paid_date, paid_amount_cents,
	reminder, last_reminded, attachments, payments, version, created_at, updated_at`

func (r *SQLiteRepository) GetBill(ctx context.Context, ownerID, id string) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND owner_id = ?`, id, ownerID)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("%w: bill %s", core.ErrNotFound, id)
	}
	return b, err
}

func (r *SQLiteRepository) ListBills(ctx context.Context, ownerID string, activeOnly bool) ([]core.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE owner_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY next_due_date, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListBillsDueBy(ctx context.Context, due time.Time) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE is_active = 1 AND is_paid = 0 AND next_due_date <= ?
		 ORDER BY next_due_date, id`,
		formatTime(due))
	if err != nil {
		return nil, fmt.Errorf("list bills due: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	reminder, err := marshalJSON(b.Reminder)
	if err != nil {
		return core.Bill{}, err
	}
	attachments, err := marshalJSON(b.Attachments)
	if err != nil {
		return core.Bill{}, err
	}
	payments, err := marshalJSON(b.Payments)
	if err != nil {
		return core.Bill{}, err
	}

	if b.Version == 0 {
		b.Version = 1
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO bills (`+billColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.OwnerID, b.Name, b.Amount.Cents, b.Category,
			formatTime(b.DueDate), string(b.Frequency), formatTime(b.NextDueDate),
			formatNullTime(b.EndDate), boolToInt(b.IsActive), boolToInt(b.IsPaid),
			formatNullTime(b.PaidDate), b.PaidAmount.Cents, reminder,
			formatNullTime(b.LastReminded), attachments, payments,
			b.Version, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
		if err != nil {
			return core.Bill{}, fmt.Errorf("insert bill: %w", err)
		}
		return b, nil
	}

	prev := b.Version
	b.Version++
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount_cents = ?, category = ?, due_date = ?,
		 frequency = ?, next_due_date = ?, end_date = ?, is_active = ?, is_paid = ?,
		 paid_date = ?, paid_amount_cents = ?, reminder = ?, last_reminded = ?,
		 attachments = ?, payments = ?, version = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		b.Name, b.Amount.Cents, b.Category, formatTime(b.DueDate),
		string(b.Frequency), formatTime(b.NextDueDate), formatNullTime(b.EndDate),
		boolToInt(b.IsActive), boolToInt(b.IsPaid), formatNullTime(b.PaidDate),
		b.PaidAmount.Cents, reminder, formatNullTime(b.LastReminded),
		attachments, payments, b.Version, formatTime(b.UpdatedAt),
		b.ID, b.OwnerID, prev)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	if err := r.checkAffected(ctx, res, "bills", b.ID, b.OwnerID); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, ownerID, id string) error {
	return r.deleteRow(ctx, "bills", id, ownerID)
}

func scanBill(row rowScanner) (core.Bill, error) {
	var (
		b                                  core.Bill
		frequency                          string
		dueDate, nextDue, created, updated string
		endDate, paidDate, lastReminded    sql.NullString
		active, paid                       int
		reminder, attachments, payments    string
	)
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount.Cents, &b.Category,
		&dueDate, &frequency, &nextDue, &endDate, &active, &paid, &paidDate,
		&b.PaidAmount.Cents, &reminder, &lastReminded, &attachments, &payments,
		&b.Version, &created, &updated)
	if err != nil {
		return core.Bill{}, err
	}
	b.Frequency = core.Frequency(frequency)
	b.IsActive = active != 0
	b.IsPaid = paid != 0
	if b.DueDate, err = parseTime(dueDate); err != nil {
		return core.Bill{}, err
	}
	if b.NextDueDate, err = parseTime(nextDue); err != nil {
		return core.Bill{}, err
	}
	if b.EndDate, err = parseNullTime(endDate); err != nil {
		return core.Bill{}, err
	}
	if b.PaidDate, err = parseNullTime(paidDate); err != nil {
		return core.Bill{}, err
	}
	if b.LastReminded, err = parseNullTime(lastReminded); err != nil {
		return core.Bill{}, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Bill{}, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Bill{}, err
	}
	if err := json.Unmarshal([]byte(reminder), &b.Reminder); err != nil {
		return core.Bill{}, fmt.Errorf("unmarshal reminder settings: %w", err)
	}
	if err := json.Unmarshal([]byte(attachments), &b.Attachments); err != nil {
		return core.Bill{}, fmt.Errorf("unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal([]byte(payments), &b.Payments); err != nil {
		return core.Bill{}, fmt.Errorf("unmarshal payments: %w", err)
	}
	return b, nil
}

// --- goals ---

const goalColumns = `id, owner_id, name, type, target_amount_cents, current_amount_cents,
	target_date, start_date, priority, status, category, auto_contribute,
	milestones, contributions, withdrawals, archived, version, created_at, updated_at`

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("%w: goal %s", core.ErrNotFound, id)
	}
	return g, err
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string, includeArchived bool) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY target_date, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListDueAutoContributions(ctx context.Context, asOf time.Time) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals
		 WHERE auto_next_contribution IS NOT NULL AND auto_next_contribution <= ? AND archived = 0`,
		formatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due auto-contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	auto, err := marshalJSON(g.AutoContribute)
	if err != nil {
		return core.Goal{}, err
	}
	milestones, err := marshalJSON(g.Milestones)
	if err != nil {
		return core.Goal{}, err
	}
	contributions, err := marshalJSON(g.Contributions)
	if err != nil {
		return core.Goal{}, err
	}
	withdrawals, err := marshalJSON(g.Withdrawals)
	if err != nil {
		return core.Goal{}, err
	}
	var autoNext sql.NullString
	if g.AutoContribute.Enabled {
		autoNext = formatNullTime(g.AutoContribute.NextContribution)
	}

	if g.Version == 0 {
		g.Version = 1
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO goals (`+goalColumns+`, auto_next_contribution)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.OwnerID, g.Name, g.Type, g.TargetAmount.Cents, g.CurrentAmount.Cents,
			formatTime(g.TargetDate), formatTime(g.StartDate), g.Priority, string(g.Status),
			g.Category, auto, milestones, contributions, withdrawals,
			boolToInt(g.Archived), g.Version, formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
			autoNext)
		if err != nil {
			return core.Goal{}, fmt.Errorf("insert goal: %w", err)
		}
		return g, nil
	}

	prev := g.Version
	g.Version++
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, type = ?, target_amount_cents = ?, current_amount_cents = ?,
		 target_date = ?, priority = ?, status = ?, category = ?, auto_contribute = ?,
		 auto_next_contribution = ?, milestones = ?, contributions = ?, withdrawals = ?,
		 archived = ?, version = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		g.Name, g.Type, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		formatTime(g.TargetDate), g.Priority, string(g.Status), g.Category, auto,
		autoNext, milestones, contributions, withdrawals,
		boolToInt(g.Archived), g.Version, formatTime(g.UpdatedAt),
		g.ID, g.OwnerID, prev)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := r.checkAffected(ctx, res, "goals", g.ID, g.OwnerID); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                                       core.Goal
		status                                  string
		targetDate, startDate, created, updated string
		auto, milestones, contributions, wd     string
		archived                                int
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Type, &g.TargetAmount.Cents,
		&g.CurrentAmount.Cents, &targetDate, &startDate, &g.Priority, &status,
		&g.Category, &auto, &milestones, &contributions, &wd,
		&archived, &g.Version, &created, &updated)
	if err != nil {
		return core.Goal{}, err
	}
	g.Status = core.GoalStatus(status)
	g.Archived = archived != 0
	if g.TargetDate, err = parseTime(targetDate); err != nil {
		return core.Goal{}, err
	}
	if g.StartDate, err = parseTime(startDate); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return core.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Goal{}, err
	}
	if err := json.Unmarshal([]byte(auto), &g.AutoContribute); err != nil {
		return core.Goal{}, fmt.Errorf("unmarshal auto-contribute: %w", err)
	}
	if err := json.Unmarshal([]byte(milestones), &g.Milestones); err != nil {
		return core.Goal{}, fmt.Errorf("unmarshal milestones: %w", err)
	}
	if err := json.Unmarshal([]byte(contributions), &g.Contributions); err != nil {
		return core.Goal{}, fmt.Errorf("unmarshal contributions: %w", err)
	}
	if err := json.Unmarshal([]byte(wd), &g.Withdrawals); err != nil {
		return core.Goal{}, fmt.Errorf("unmarshal withdrawals: %w", err)
	}
	return g, nil
}

// --- shared ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// deleteRow removes one owner-scoped row, reporting core.ErrNotFound
// when nothing matched.
func (r *SQLiteRepository) deleteRow(ctx context.Context, table, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", core.ErrNotFound, table, id)
	}
	return nil
}

// checkAffected distinguishes a stale-version update from a missing
// row after an UPDATE matched nothing.
func (r *SQLiteRepository) checkAffected(ctx context.Context, res sql.Result, table, id, ownerID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM `+table+` WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", core.ErrNotFound, table, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s %s was modified concurrently", core.ErrConflict, table, id)
}
