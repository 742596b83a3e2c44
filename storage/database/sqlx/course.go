package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// dbCourse carries the jsonb video_urls column and the nullable mentor_id
// column alongside the course fields. The shadowing MentorID takes
// precedence over the embedded one in sqlx's field mapping.
type dbCourse struct {
	course.Course
	MentorID     sql.NullString `db:"mentor_id"`
	RawVideoURLs []byte         `db:"video_urls"`
}

func (repo courseRepository) pack(crs course.Course) (dbCourse, error) {
	raw, err := json.Marshal(crs.VideoURLs)
	if err != nil {
		return dbCourse{}, errors.Wrap(err, "encoding video urls")
	}
	return dbCourse{Course: crs, MentorID: nullID(crs.MentorID), RawVideoURLs: raw}, nil
}

func (repo courseRepository) unpack(dbc dbCourse) (course.Course, error) {
	crs := dbc.Course
	crs.MentorID = dbc.MentorID.String
	if len(dbc.RawVideoURLs) > 0 {
		if err := json.Unmarshal(dbc.RawVideoURLs, &crs.VideoURLs); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding video urls")
		}
	}
	return crs, nil
}

func (repo courseRepository) unpackSlice(dbcs []dbCourse) ([]course.Course, error) {
	courses := make([]course.Course, 0, len(dbcs))
	for _, dbc := range dbcs {
		crs, err := repo.unpack(dbc)
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

// trapNoRowsErr maps psql "no rows" err to core.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return errors.Wrap(core.ErrNotFound, "course")
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	dbc, err := repo.pack(crs)
	if err != nil {
		return course.Course{}, err
	}
	query := `
	INSERT INTO course (id, title, description, mentor_id, batch_id, zoom_id, teams_id, approval_status, video_urls, created_at, updated_at)
	VALUES (:id, :title, :description, :mentor_id, :batch_id, :zoom_id, :teams_id, :approval_status, :video_urls, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, query, dbc); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var dbc dbCourse
	query := `SELECT * FROM course WHERE id = $1`
	if err := repo.db.GetContext(ctx, &dbc, query, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return repo.unpack(dbc)
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var dbcs []dbCourse
	query := `SELECT * FROM course ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &dbcs, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return repo.unpackSlice(dbcs)
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	query := `SELECT * FROM course WHERE 1=1`
	var args []interface{}
	if filter.ApprovalStatus != "" {
		query += ` AND approval_status = ?`
		args = append(args, filter.ApprovalStatus)
	}
	query += ` ORDER BY created_at DESC`

	var dbcs []dbCourse
	if err := repo.db.SelectContext(ctx, &dbcs, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return repo.unpackSlice(dbcs)
}

func (repo courseRepository) QueryCoursesByMentor(ctx context.Context, mentorID string) ([]course.Course, error) {
	var dbcs []dbCourse
	query := `SELECT * FROM course WHERE mentor_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &dbcs, query, mentorID); err != nil {
		return nil, errors.Wrap(err, "querying courses by mentor")
	}
	return repo.unpackSlice(dbcs)
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	dbc, err := repo.pack(crs)
	if err != nil {
		return course.Course{}, err
	}
	query := `
	UPDATE course SET
		title           = :title,
		description     = :description,
		mentor_id       = :mentor_id,
		batch_id        = :batch_id,
		zoom_id         = :zoom_id,
		teams_id        = :teams_id,
		approval_status = :approval_status,
		video_urls      = :video_urls,
		updated_at      = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, dbc)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, errors.Wrap(core.ErrNotFound, "course")
	}
	return crs, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding course delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}
