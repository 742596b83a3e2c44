package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/material"
)

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

// dbMaterial carries the nullable mentor_id column (a course may not have a
// mentor assigned yet) alongside the material fields.
type dbMaterial struct {
	material.Material
	MentorID sql.NullString `db:"mentor_id"`
}

func (repo materialRepository) pack(mat material.Material) dbMaterial {
	return dbMaterial{Material: mat, MentorID: nullID(mat.MentorID)}
}

func (repo materialRepository) unpackSlice(dbms []dbMaterial) []material.Material {
	materials := make([]material.Material, 0, len(dbms))
	for _, dbm := range dbms {
		dbm.Material.MentorID = dbm.MentorID.String
		materials = append(materials, dbm.Material)
	}
	return materials
}

func (repo materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	query := `
	INSERT INTO material (id, course_id, mentor_id, title, description, file_url, is_visible, created_at, updated_at)
	VALUES (:id, :course_id, :mentor_id, :title, :description, :file_url, :is_visible, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.pack(mat)); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return mat, nil
}

func (repo materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	var dbm dbMaterial
	query := `SELECT * FROM material WHERE id = $1`
	if err := repo.db.GetContext(ctx, &dbm, query, id); err != nil {
		if err == sql.ErrNoRows {
			return material.Material{}, errors.Wrap(core.ErrNotFound, "material")
		}
		return material.Material{}, errors.Wrap(err, "getting material")
	}
	mat := dbm.Material
	mat.MentorID = dbm.MentorID.String
	return mat, nil
}

func (repo materialRepository) QueryMaterialsByCourse(ctx context.Context, courseID string) ([]material.Material, error) {
	var dbms []dbMaterial
	query := `SELECT * FROM material WHERE course_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &dbms, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying materials by course")
	}
	return repo.unpackSlice(dbms), nil
}

func (repo materialRepository) QueryAllMaterials(ctx context.Context) ([]material.Material, error) {
	var dbms []dbMaterial
	query := `SELECT * FROM material ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &dbms, query); err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	return repo.unpackSlice(dbms), nil
}

func (repo materialRepository) UpdateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	query := `
	UPDATE material SET
		title       = :title,
		description = :description,
		file_url    = :file_url,
		is_visible  = :is_visible,
		updated_at  = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, mat)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return material.Material{}, errors.Wrap(core.ErrNotFound, "material")
	}
	return mat, nil
}

func (repo materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM material WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding material delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting materials")
	}
	return nil
}
