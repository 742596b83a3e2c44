// Package dummydb is an in-memory database used in tests and local dev.
// Each table enforces the same uniqueness guarantees the real schema does,
// atomically under its lock.
package dummydb

import (
	"sync"

	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/fee"
	"github.com/trezcool/elimu/core/interview"
	"github.com/trezcool/elimu/core/material"
	"github.com/trezcool/elimu/core/task"
	"github.com/trezcool/elimu/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		enroll     *enrollTable
		task       *taskTable
		attendance *attendanceTable
		material   *materialTable
		fee        *feeTable
		interview  *interviewTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	enrollTable struct {
		sync.RWMutex
		enrollments  map[string]*enroll.Enrollment
		certificates map[string]*enroll.Certificate
	}

	taskTable struct {
		sync.RWMutex
		tasks       map[string]*task.Task
		submissions map[string]*task.Submission
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}

	feeTable struct {
		sync.RWMutex
		table map[string]*fee.Reminder
	}

	interviewTable struct {
		sync.RWMutex
		table map[string]*interview.MockInterview
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{table: make(map[string]*course.Course)},
		enroll: &enrollTable{
			enrollments:  make(map[string]*enroll.Enrollment),
			certificates: make(map[string]*enroll.Certificate),
		},
		task: &taskTable{
			tasks:       make(map[string]*task.Task),
			submissions: make(map[string]*task.Submission),
		},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
		material:   &materialTable{table: make(map[string]*material.Material)},
		fee:        &feeTable{table: make(map[string]*fee.Reminder)},
		interview:  &interviewTable{table: make(map[string]*interview.MockInterview)},
	}
	return db, nil
}
