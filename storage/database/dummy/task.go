package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

// query returns tasks by due date ascending, undated tasks last.
func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.tasks))
	for _, tsk := range repo.db.tasks {
		tasks = append(tasks, *tsk)
	}
	sort.Slice(tasks, func(i, j int) bool {
		ti, tj := tasks[i].DueDate, tasks[j].DueDate
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})
	return tasks
}

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.tasks[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tsk, ok := repo.db.tasks[id]; ok {
		return *tsk, nil
	}
	return task.Task{}, errors.Wrap(core.ErrNotFound, "task")
}

func (repo *taskRepository) QueryTasksByCourse(ctx context.Context, courseID string) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []task.Task
	for _, tsk := range repo.query() {
		if tsk.CourseID == courseID {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) QueryAllTasks(ctx context.Context) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tasks[tsk.ID]; !ok {
		return task.Task{}, errors.Wrap(core.ErrNotFound, "task")
	}
	repo.db.tasks[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.tasks, id)
	}
	return nil
}

func (repo *taskRepository) CreateSubmission(ctx context.Context, sub task.Submission) (task.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.TaskID == sub.TaskID && existing.StudentID == sub.StudentID {
			return task.Submission{}, task.ErrAlreadySubmitted
		}
	}
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *taskRepository) GetSubmissionByID(ctx context.Context, id string) (task.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return task.Submission{}, errors.Wrap(core.ErrNotFound, "submission")
}

// QuerySubmissionsByTask returns submissions most recent first.
func (repo *taskRepository) QuerySubmissionsByTask(ctx context.Context, taskID string) ([]task.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []task.Submission
	for _, sub := range repo.db.submissions {
		if sub.TaskID == taskID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *taskRepository) UpdateSubmission(ctx context.Context, sub task.Submission) (task.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.submissions[sub.ID]; !ok {
		return task.Submission{}, errors.Wrap(core.ErrNotFound, "submission")
	}
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}
