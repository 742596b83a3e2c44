package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.material}
}

// query returns materials newest first.
func (repo *materialRepository) query() []material.Material {
	materials := make([]material.Material, 0, len(repo.db.table))
	for _, mat := range repo.db.table {
		materials = append(materials, *mat)
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].CreatedAt.After(materials[j].CreatedAt) })
	return materials
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mat, ok := repo.db.table[id]; ok {
		return *mat, nil
	}
	return material.Material{}, errors.Wrap(core.ErrNotFound, "material")
}

func (repo *materialRepository) QueryMaterialsByCourse(ctx context.Context, courseID string) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var materials []material.Material
	for _, mat := range repo.query() {
		if mat.CourseID == courseID {
			materials = append(materials, mat)
		}
	}
	return materials, nil
}

func (repo *materialRepository) QueryAllMaterials(ctx context.Context) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mat.ID]; !ok {
		return material.Material{}, errors.Wrap(core.ErrNotFound, "material")
	}
	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
