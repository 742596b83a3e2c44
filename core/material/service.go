package material

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/policy"
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		QueryMaterialsByCourse(ctx context.Context, courseID string) ([]Material, error)
		QueryAllMaterials(ctx context.Context) ([]Material, error)
		UpdateMaterial(ctx context.Context, mat Material) (Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, actor policy.Actor, nm NewMaterial) (Material, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (Material, error)
		Query(ctx context.Context, actor policy.Actor) ([]Material, error)
		QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Material, error)
		Update(ctx context.Context, actor policy.Actor, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, actor policy.Actor, id string) error
	}

	service struct {
		repo       Repository
		courseRepo course.Repository
		enrollRepo enroll.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseRepo course.Repository, enrollRepo enroll.Repository) *service {
	return &service{
		repo:       repo,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
	}
}

func (svc *service) isEnrolled(ctx context.Context, actor policy.Actor, courseID string) (bool, error) {
	if !actor.IsStudent() {
		return false, nil
	}
	enrolled, err := svc.enrollRepo.IsEnrolled(ctx, actor.ID, courseID)
	return enrolled, errors.Wrap(err, "resolving enrollment")
}

func (svc *service) Create(ctx context.Context, actor policy.Actor, nm NewMaterial) (Material, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, nm.CourseID)
	if err != nil {
		return Material{}, err
	}
	// a mentor may only add material to their own course
	res := policy.Resource{Kind: policy.KindMaterial, MentorID: crs.MentorID}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Material{}, err
	}

	visible := true
	if nm.IsVisible != nil {
		visible = *nm.IsVisible
	}

	now := time.Now().UTC()
	mat := Material{
		ID:          uuid.New().String(),
		CourseID:    nm.CourseID,
		MentorID:    crs.MentorID,
		Title:       nm.Title,
		Description: nm.Description,
		FileURL:     nm.FileURL,
		IsVisible:   visible,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMaterial(ctx, mat)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (Material, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	enrolled, err := svc.isEnrolled(ctx, actor, mat.CourseID)
	if err != nil {
		return Material{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, mat.Resource(enrolled)).Err(); err != nil {
		return Material{}, err
	}
	return mat, nil
}

func (svc *service) visible(ctx context.Context, actor policy.Actor, materials []Material) ([]Material, error) {
	visible := make([]Material, 0, len(materials))
	enrolled := make(map[string]bool) // courseID -> enrolled, per-request only
	for _, mat := range materials {
		isEnr, ok := enrolled[mat.CourseID]
		if !ok {
			var err error
			if isEnr, err = svc.isEnrolled(ctx, actor, mat.CourseID); err != nil {
				return nil, err
			}
			enrolled[mat.CourseID] = isEnr
		}
		if policy.CanList(actor, mat.Resource(isEnr)) {
			visible = append(visible, mat)
		}
	}
	return visible, nil
}

func (svc *service) Query(ctx context.Context, actor policy.Actor) ([]Material, error) {
	materials, err := svc.repo.QueryAllMaterials(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, materials)
}

func (svc *service) QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Material, error) {
	materials, err := svc.repo.QueryMaterialsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, materials)
}

func (svc *service) Update(ctx context.Context, actor policy.Actor, id string, um UpdateMaterial) (Material, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, mat.Resource(false)).Err(); err != nil {
		return Material{}, err
	}

	mat = um.apply(mat)
	mat.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMaterial(ctx, mat)
}

func (svc *service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionDelete, mat.Resource(false)).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteMaterialsByID(ctx, id)
}
