package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/fee"
)

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB) *feeRepository {
	return &feeRepository{db: db}
}

func (repo feeRepository) CreateReminder(ctx context.Context, rem fee.Reminder) (fee.Reminder, error) {
	query := `
	INSERT INTO fee_reminder (id, student_id, description, amount, due_date, status, created_at, updated_at)
	VALUES (:id, :student_id, :description, :amount, :due_date, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, rem); err != nil {
		return fee.Reminder{}, errors.Wrap(err, "inserting fee reminder")
	}
	return rem, nil
}

func (repo feeRepository) GetReminderByID(ctx context.Context, id string) (fee.Reminder, error) {
	var rem fee.Reminder
	query := `SELECT * FROM fee_reminder WHERE id = $1`
	if err := repo.db.GetContext(ctx, &rem, query, id); err != nil {
		if err == sql.ErrNoRows {
			return fee.Reminder{}, errors.Wrap(core.ErrNotFound, "fee reminder")
		}
		return fee.Reminder{}, errors.Wrap(err, "getting fee reminder")
	}
	return rem, nil
}

func (repo feeRepository) QueryAllReminders(ctx context.Context) ([]fee.Reminder, error) {
	var reminders []fee.Reminder
	query := `SELECT * FROM fee_reminder ORDER BY due_date ASC`
	if err := repo.db.SelectContext(ctx, &reminders, query); err != nil {
		return nil, errors.Wrap(err, "querying fee reminders")
	}
	return reminders, nil
}

func (repo feeRepository) QueryRemindersByStudent(ctx context.Context, studentID string) ([]fee.Reminder, error) {
	var reminders []fee.Reminder
	query := `SELECT * FROM fee_reminder WHERE student_id = $1 ORDER BY due_date ASC`
	if err := repo.db.SelectContext(ctx, &reminders, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying fee reminders by student")
	}
	return reminders, nil
}

func (repo feeRepository) UpdateReminder(ctx context.Context, rem fee.Reminder) (fee.Reminder, error) {
	query := `
	UPDATE fee_reminder SET
		description = :description,
		amount      = :amount,
		due_date    = :due_date,
		status      = :status,
		updated_at  = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, rem)
	if err != nil {
		return fee.Reminder{}, errors.Wrap(err, "updating fee reminder")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fee.Reminder{}, errors.Wrap(core.ErrNotFound, "fee reminder")
	}
	return rem, nil
}

func (repo feeRepository) DeleteRemindersByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM fee_reminder WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding fee reminder delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting fee reminders")
	}
	return nil
}
