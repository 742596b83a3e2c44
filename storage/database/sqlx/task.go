package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/task"
)

const submissionUniqueConstraint = "submission_task_student_key"

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to core.ErrNotFound
func (repo taskRepository) trapNoRowsErr(err error, entity, msg string) error {
	if err == sql.ErrNoRows {
		return errors.Wrap(core.ErrNotFound, entity)
	}
	return errors.Wrap(err, msg)
}

// dbTask carries the nullable mentor_id column (a course may not have a
// mentor assigned yet) alongside the task fields.
type dbTask struct {
	task.Task
	MentorID sql.NullString `db:"mentor_id"`
}

func (repo taskRepository) pack(tsk task.Task) dbTask {
	return dbTask{Task: tsk, MentorID: nullID(tsk.MentorID)}
}

func (repo taskRepository) unpackSlice(dbts []dbTask) []task.Task {
	tasks := make([]task.Task, 0, len(dbts))
	for _, dbt := range dbts {
		dbt.Task.MentorID = dbt.MentorID.String
		tasks = append(tasks, dbt.Task)
	}
	return tasks
}

func (repo taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	query := `
	INSERT INTO task (id, course_id, mentor_id, title, description, due_date, created_at, updated_at)
	VALUES (:id, :course_id, :mentor_id, :title, :description, :due_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.pack(tsk)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return tsk, nil
}

func (repo taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var dbt dbTask
	query := `SELECT * FROM task WHERE id = $1`
	if err := repo.db.GetContext(ctx, &dbt, query, id); err != nil {
		return task.Task{}, repo.trapNoRowsErr(err, "task", "getting task")
	}
	tsk := dbt.Task
	tsk.MentorID = dbt.MentorID.String
	return tsk, nil
}

func (repo taskRepository) QueryTasksByCourse(ctx context.Context, courseID string) ([]task.Task, error) {
	var dbts []dbTask
	query := `SELECT * FROM task WHERE course_id = $1 ORDER BY due_date ASC NULLS LAST`
	if err := repo.db.SelectContext(ctx, &dbts, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying tasks by course")
	}
	return repo.unpackSlice(dbts), nil
}

func (repo taskRepository) QueryAllTasks(ctx context.Context) ([]task.Task, error) {
	var dbts []dbTask
	query := `SELECT * FROM task ORDER BY due_date ASC NULLS LAST`
	if err := repo.db.SelectContext(ctx, &dbts, query); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return repo.unpackSlice(dbts), nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	query := `
	UPDATE task SET
		title       = :title,
		description = :description,
		due_date    = :due_date,
		updated_at  = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, tsk)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, errors.Wrap(core.ErrNotFound, "task")
	}
	return tsk, nil
}

func (repo taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM task WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding task delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}

func (repo taskRepository) CreateSubmission(ctx context.Context, sub task.Submission) (task.Submission, error) {
	query := `
	INSERT INTO submission (id, task_id, student_id, content, file_url, grade, feedback, submitted_at, updated_at)
	VALUES (:id, :task_id, :student_id, :content, :file_url, :grade, :feedback, :submitted_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, sub); err != nil {
		if isUniqueViolation(err, submissionUniqueConstraint) {
			return task.Submission{}, task.ErrAlreadySubmitted
		}
		return task.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo taskRepository) GetSubmissionByID(ctx context.Context, id string) (task.Submission, error) {
	var sub task.Submission
	query := `SELECT * FROM submission WHERE id = $1`
	if err := repo.db.GetContext(ctx, &sub, query, id); err != nil {
		return task.Submission{}, repo.trapNoRowsErr(err, "submission", "getting submission")
	}
	return sub, nil
}

func (repo taskRepository) QuerySubmissionsByTask(ctx context.Context, taskID string) ([]task.Submission, error) {
	var subs []task.Submission
	query := `SELECT * FROM submission WHERE task_id = $1 ORDER BY submitted_at DESC`
	if err := repo.db.SelectContext(ctx, &subs, query, taskID); err != nil {
		return nil, errors.Wrap(err, "querying submissions by task")
	}
	return subs, nil
}

func (repo taskRepository) UpdateSubmission(ctx context.Context, sub task.Submission) (task.Submission, error) {
	query := `
	UPDATE submission SET
		content    = :content,
		file_url   = :file_url,
		grade      = :grade,
		feedback   = :feedback,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Submission{}, errors.Wrap(core.ErrNotFound, "submission")
	}
	return sub, nil
}
