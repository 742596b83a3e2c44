package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/interview"
)

type interviewRepository struct {
	db *sqlx.DB
}

var _ interview.Repository = (*interviewRepository)(nil) // interface compliance check

func NewInterviewRepository(db *sqlx.DB) *interviewRepository {
	return &interviewRepository{db: db}
}

func (repo interviewRepository) CreateInterview(ctx context.Context, mi interview.MockInterview) (interview.MockInterview, error) {
	query := `
	INSERT INTO mock_interview (id, student_id, mentor_id, scheduled_date, status, feedback, score, created_at, updated_at)
	VALUES (:id, :student_id, :mentor_id, :scheduled_date, :status, :feedback, :score, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, mi); err != nil {
		return interview.MockInterview{}, errors.Wrap(err, "inserting mock interview")
	}
	return mi, nil
}

func (repo interviewRepository) GetInterviewByID(ctx context.Context, id string) (interview.MockInterview, error) {
	var mi interview.MockInterview
	query := `SELECT * FROM mock_interview WHERE id = $1`
	if err := repo.db.GetContext(ctx, &mi, query, id); err != nil {
		if err == sql.ErrNoRows {
			return interview.MockInterview{}, errors.Wrap(core.ErrNotFound, "mock interview")
		}
		return interview.MockInterview{}, errors.Wrap(err, "getting mock interview")
	}
	return mi, nil
}

func (repo interviewRepository) QueryAllInterviews(ctx context.Context) ([]interview.MockInterview, error) {
	var interviews []interview.MockInterview
	query := `SELECT * FROM mock_interview ORDER BY scheduled_date DESC`
	if err := repo.db.SelectContext(ctx, &interviews, query); err != nil {
		return nil, errors.Wrap(err, "querying mock interviews")
	}
	return interviews, nil
}

func (repo interviewRepository) QueryInterviewsByMentor(ctx context.Context, mentorID string) ([]interview.MockInterview, error) {
	var interviews []interview.MockInterview
	query := `SELECT * FROM mock_interview WHERE mentor_id = $1 ORDER BY scheduled_date DESC`
	if err := repo.db.SelectContext(ctx, &interviews, query, mentorID); err != nil {
		return nil, errors.Wrap(err, "querying mock interviews by mentor")
	}
	return interviews, nil
}

func (repo interviewRepository) QueryInterviewsByStudent(ctx context.Context, studentID string) ([]interview.MockInterview, error) {
	var interviews []interview.MockInterview
	query := `SELECT * FROM mock_interview WHERE student_id = $1 ORDER BY scheduled_date DESC`
	if err := repo.db.SelectContext(ctx, &interviews, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying mock interviews by student")
	}
	return interviews, nil
}

func (repo interviewRepository) UpdateInterview(ctx context.Context, mi interview.MockInterview) (interview.MockInterview, error) {
	query := `
	UPDATE mock_interview SET
		mentor_id      = :mentor_id,
		scheduled_date = :scheduled_date,
		status         = :status,
		feedback       = :feedback,
		score          = :score,
		updated_at     = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, mi)
	if err != nil {
		return interview.MockInterview{}, errors.Wrap(err, "updating mock interview")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return interview.MockInterview{}, errors.Wrap(core.ErrNotFound, "mock interview")
	}
	return mi, nil
}
