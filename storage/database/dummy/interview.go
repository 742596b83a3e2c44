package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/interview"
)

type interviewRepository struct {
	db *interviewTable
}

var _ interview.Repository = (*interviewRepository)(nil) // interface compliance check

func NewInterviewRepository(db *DB) interview.Repository {
	return &interviewRepository{db: db.interview}
}

// query returns interviews most recently scheduled first.
func (repo *interviewRepository) query() []interview.MockInterview {
	interviews := make([]interview.MockInterview, 0, len(repo.db.table))
	for _, mi := range repo.db.table {
		interviews = append(interviews, *mi)
	}
	sort.Slice(interviews, func(i, j int) bool {
		return interviews[i].ScheduledDate.After(interviews[j].ScheduledDate)
	})
	return interviews
}

func (repo *interviewRepository) CreateInterview(ctx context.Context, mi interview.MockInterview) (interview.MockInterview, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[mi.ID] = &mi
	return mi, nil
}

func (repo *interviewRepository) GetInterviewByID(ctx context.Context, id string) (interview.MockInterview, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mi, ok := repo.db.table[id]; ok {
		return *mi, nil
	}
	return interview.MockInterview{}, errors.Wrap(core.ErrNotFound, "mock interview")
}

func (repo *interviewRepository) QueryAllInterviews(ctx context.Context) ([]interview.MockInterview, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *interviewRepository) QueryInterviewsByMentor(ctx context.Context, mentorID string) ([]interview.MockInterview, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var interviews []interview.MockInterview
	for _, mi := range repo.query() {
		if mi.MentorID == mentorID {
			interviews = append(interviews, mi)
		}
	}
	return interviews, nil
}

func (repo *interviewRepository) QueryInterviewsByStudent(ctx context.Context, studentID string) ([]interview.MockInterview, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var interviews []interview.MockInterview
	for _, mi := range repo.query() {
		if mi.StudentID == studentID {
			interviews = append(interviews, mi)
		}
	}
	return interviews, nil
}

func (repo *interviewRepository) UpdateInterview(ctx context.Context, mi interview.MockInterview) (interview.MockInterview, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mi.ID]; !ok {
		return interview.MockInterview{}, errors.Wrap(core.ErrNotFound, "mock interview")
	}
	repo.db.table[mi.ID] = &mi
	return mi, nil
}
