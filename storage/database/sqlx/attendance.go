package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/attendance"
)

const attendanceUniqueConstraint = "attendance_student_course_date_key"

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// UpsertAttendance relies on the (student_id, course_id, date) constraint:
// an existing record keeps its first check-in, only an incoming check-out
// is applied.
func (repo attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	query := `
	INSERT INTO attendance (id, student_id, course_id, date, check_in, check_out, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT ON CONSTRAINT ` + attendanceUniqueConstraint + `
	DO UPDATE SET check_out = COALESCE(EXCLUDED.check_out, attendance.check_out)
	RETURNING *`
	var saved attendance.Attendance
	err := repo.db.GetContext(ctx, &saved, query,
		att.ID, att.StudentID, att.CourseID, att.Date, att.CheckIn, att.CheckOut, att.CreatedAt)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "upserting attendance")
	}
	return saved, nil
}

func (repo attendanceRepository) GetAttendance(ctx context.Context, studentID, courseID, date string) (attendance.Attendance, error) {
	var att attendance.Attendance
	query := `SELECT * FROM attendance WHERE student_id = $1 AND course_id = $2 AND date = $3`
	if err := repo.db.GetContext(ctx, &att, query, studentID, courseID, date); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Attendance{}, errors.Wrap(core.ErrNotFound, "attendance")
		}
		return attendance.Attendance{}, errors.Wrap(err, "getting attendance")
	}
	return att, nil
}

func (repo attendanceRepository) QueryAttendanceByCourse(ctx context.Context, courseID string) ([]attendance.Attendance, error) {
	var records []attendance.Attendance
	query := `SELECT * FROM attendance WHERE course_id = $1 ORDER BY date DESC`
	if err := repo.db.SelectContext(ctx, &records, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying attendance by course")
	}
	return records, nil
}

func (repo attendanceRepository) QueryAttendanceByStudent(ctx context.Context, studentID string) ([]attendance.Attendance, error) {
	var records []attendance.Attendance
	query := `SELECT * FROM attendance WHERE student_id = $1 ORDER BY date DESC`
	if err := repo.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying attendance by student")
	}
	return records, nil
}

func (repo attendanceRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM attendance WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding attendance delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return nil
}
