package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/fee"
)

type feeRepository struct {
	db *feeTable
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee}
}

// query returns reminders by due date ascending.
func (repo *feeRepository) query() []fee.Reminder {
	reminders := make([]fee.Reminder, 0, len(repo.db.table))
	for _, rem := range repo.db.table {
		reminders = append(reminders, *rem)
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].DueDate.Before(reminders[j].DueDate) })
	return reminders
}

func (repo *feeRepository) CreateReminder(ctx context.Context, rem fee.Reminder) (fee.Reminder, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[rem.ID] = &rem
	return rem, nil
}

func (repo *feeRepository) GetReminderByID(ctx context.Context, id string) (fee.Reminder, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rem, ok := repo.db.table[id]; ok {
		return *rem, nil
	}
	return fee.Reminder{}, errors.Wrap(core.ErrNotFound, "fee reminder")
}

func (repo *feeRepository) QueryAllReminders(ctx context.Context) ([]fee.Reminder, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *feeRepository) QueryRemindersByStudent(ctx context.Context, studentID string) ([]fee.Reminder, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reminders []fee.Reminder
	for _, rem := range repo.query() {
		if rem.StudentID == studentID {
			reminders = append(reminders, rem)
		}
	}
	return reminders, nil
}

func (repo *feeRepository) UpdateReminder(ctx context.Context, rem fee.Reminder) (fee.Reminder, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rem.ID]; !ok {
		return fee.Reminder{}, errors.Wrap(core.ErrNotFound, "fee reminder")
	}
	repo.db.table[rem.ID] = &rem
	return rem, nil
}

func (repo *feeRepository) DeleteRemindersByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
