package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/enroll"
)

const (
	enrollmentUniqueConstraint  = "enrollment_student_course_key"
	certificateUniqueConstraint = "certificate_student_course_key"
)

type enrollRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *sqlx.DB) *enrollRepository {
	return &enrollRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to core.ErrNotFound
func (repo enrollRepository) trapNoRowsErr(err error, entity, msg string) error {
	if err == sql.ErrNoRows {
		return errors.Wrap(core.ErrNotFound, entity)
	}
	return errors.Wrap(err, msg)
}

func (repo enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	query := `
	INSERT INTO enrollment (id, student_id, course_id, completion_status, certificate_id, enrolled_at, updated_at)
	VALUES (:id, :student_id, :course_id, :completion_status, :certificate_id, :enrolled_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, enr); err != nil {
		if isUniqueViolation(err, enrollmentUniqueConstraint) {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
		return enroll.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) GetEnrollmentByID(ctx context.Context, id string) (enroll.Enrollment, error) {
	var enr enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &enr, query, id); err != nil {
		return enroll.Enrollment{}, repo.trapNoRowsErr(err, "enrollment", "getting enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enroll.Enrollment, error) {
	var enr enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE student_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &enr, query, studentID, courseID); err != nil {
		return enroll.Enrollment{}, repo.trapNoRowsErr(err, "enrollment", "getting enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) QueryAllEnrollments(ctx context.Context) ([]enroll.Enrollment, error) {
	var enrollments []enroll.Enrollment
	query := `SELECT * FROM enrollment ORDER BY enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo enrollRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]enroll.Enrollment, error) {
	var enrollments []enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE course_id = $1 ORDER BY enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments by course")
	}
	return enrollments, nil
}

func (repo enrollRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enroll.Enrollment, error) {
	var enrollments []enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments by student")
	}
	return enrollments, nil
}

func (repo enrollRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var enrolled bool
	query := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE student_id = $1 AND course_id = $2)`
	if err := repo.db.GetContext(ctx, &enrolled, query, studentID, courseID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func (repo enrollRepository) UpdateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	query := `
	UPDATE enrollment SET
		completion_status = :completion_status,
		certificate_id    = :certificate_id,
		updated_at        = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, enr)
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enroll.Enrollment{}, errors.Wrap(core.ErrNotFound, "enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM enrollment WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding enrollment delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting enrollments")
	}
	return nil
}

// IssueCertificate inserts the certificate and stamps its id onto the
// enrollment in one transaction.
func (repo enrollRepository) IssueCertificate(ctx context.Context, cert enroll.Certificate, enrollmentID string) (enroll.Certificate, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return enroll.Certificate{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO certificate (id, student_id, course_id, issued_date)
	VALUES (:id, :student_id, :course_id, :issued_date)`
	if _, err = tx.NamedExecContext(ctx, query, cert); err != nil {
		if isUniqueViolation(err, certificateUniqueConstraint) {
			return enroll.Certificate{}, enroll.ErrCertificateExists
		}
		return enroll.Certificate{}, errors.Wrap(err, "inserting certificate")
	}

	res, err := tx.ExecContext(ctx, `UPDATE enrollment SET certificate_id = $1 WHERE id = $2`, cert.ID, enrollmentID)
	if err != nil {
		return enroll.Certificate{}, errors.Wrap(err, "stamping enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enroll.Certificate{}, errors.Wrap(core.ErrNotFound, "enrollment")
	}

	if err = tx.Commit(); err != nil {
		return enroll.Certificate{}, errors.Wrap(err, "committing transaction")
	}
	return cert, nil
}

func (repo enrollRepository) GetCertificateByID(ctx context.Context, id string) (enroll.Certificate, error) {
	var cert enroll.Certificate
	query := `SELECT * FROM certificate WHERE id = $1`
	if err := repo.db.GetContext(ctx, &cert, query, id); err != nil {
		return enroll.Certificate{}, repo.trapNoRowsErr(err, "certificate", "getting certificate")
	}
	return cert, nil
}

func (repo enrollRepository) QueryAllCertificates(ctx context.Context) ([]enroll.Certificate, error) {
	var certs []enroll.Certificate
	query := `SELECT * FROM certificate ORDER BY issued_date DESC`
	if err := repo.db.SelectContext(ctx, &certs, query); err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	return certs, nil
}

func (repo enrollRepository) QueryCertificatesByStudent(ctx context.Context, studentID string) ([]enroll.Certificate, error) {
	var certs []enroll.Certificate
	query := `SELECT * FROM certificate WHERE student_id = $1 ORDER BY issued_date DESC`
	if err := repo.db.SelectContext(ctx, &certs, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying certificates by student")
	}
	return certs, nil
}

func (repo enrollRepository) DeleteCertificatesByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM certificate WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding certificate delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting certificates")
	}
	return nil
}
