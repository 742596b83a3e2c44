package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

// query returns records most recent day first.
func (repo *attendanceRepository) query() []attendance.Attendance {
	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, att := range repo.db.table {
		records = append(records, *att)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records
}

// UpsertAttendance keys on (student_id, course_id, date): a repeat check-in
// keeps the existing record's first check-in timestamp, a check-out updates
// it in place.
func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == att.StudentID && existing.CourseID == att.CourseID && existing.Date == att.Date {
			if att.CheckOut != nil {
				existing.CheckOut = att.CheckOut
			}
			return *existing, nil
		}
	}
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) GetAttendance(ctx context.Context, studentID, courseID, date string) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.table {
		if att.StudentID == studentID && att.CourseID == courseID && att.Date == date {
			return *att, nil
		}
	}
	return attendance.Attendance{}, errors.Wrap(core.ErrNotFound, "attendance")
}

func (repo *attendanceRepository) QueryAttendanceByCourse(ctx context.Context, courseID string) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []attendance.Attendance
	for _, att := range repo.query() {
		if att.CourseID == courseID {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) QueryAttendanceByStudent(ctx context.Context, studentID string) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []attendance.Attendance
	for _, att := range repo.query() {
		if att.StudentID == studentID {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
