package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/enroll"
)

type enrollRepository struct {
	db *enrollTable
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) enroll.Repository {
	return &enrollRepository{db: db.enroll}
}

// query returns enrollments newest first.
func (repo *enrollRepository) query() []enroll.Enrollment {
	enrollments := make([]enroll.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		enrollments = append(enrollments, *enr)
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt)
	})
	return enrollments
}

func (repo *enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.StudentID == enr.StudentID && existing.CourseID == enr.CourseID {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollRepository) GetEnrollmentByID(ctx context.Context, id string) (enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return enroll.Enrollment{}, errors.Wrap(core.ErrNotFound, "enrollment")
}

func (repo *enrollRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return enroll.Enrollment{}, errors.Wrap(core.ErrNotFound, "enrollment")
}

func (repo *enrollRepository) QueryAllEnrollments(ctx context.Context) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *enrollRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []enroll.Enrollment
	for _, enr := range repo.query() {
		if enr.CourseID == courseID {
			enrollments = append(enrollments, enr)
		}
	}
	return enrollments, nil
}

func (repo *enrollRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []enroll.Enrollment
	for _, enr := range repo.query() {
		if enr.StudentID == studentID {
			enrollments = append(enrollments, enr)
		}
	}
	return enrollments, nil
}

func (repo *enrollRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollRepository) UpdateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[enr.ID]; !ok {
		return enroll.Enrollment{}, errors.Wrap(core.ErrNotFound, "enrollment")
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.enrollments, id)
	}
	return nil
}

// IssueCertificate creates the certificate and stamps the enrollment under
// one lock, mirroring the transactional behavior of the real database.
func (repo *enrollRepository) IssueCertificate(ctx context.Context, cert enroll.Certificate, enrollmentID string) (enroll.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.certificates {
		if existing.StudentID == cert.StudentID && existing.CourseID == cert.CourseID {
			return enroll.Certificate{}, enroll.ErrCertificateExists
		}
	}
	enr, ok := repo.db.enrollments[enrollmentID]
	if !ok {
		return enroll.Certificate{}, errors.Wrap(core.ErrNotFound, "enrollment")
	}
	repo.db.certificates[cert.ID] = &cert
	enr.CertificateID = cert.ID
	return cert, nil
}

func (repo *enrollRepository) GetCertificateByID(ctx context.Context, id string) (enroll.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.certificates[id]; ok {
		return *cert, nil
	}
	return enroll.Certificate{}, errors.Wrap(core.ErrNotFound, "certificate")
}

// QueryAllCertificates returns certificates most recently issued first.
func (repo *enrollRepository) QueryAllCertificates(ctx context.Context) ([]enroll.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	certs := make([]enroll.Certificate, 0, len(repo.db.certificates))
	for _, cert := range repo.db.certificates {
		certs = append(certs, *cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedDate.After(certs[j].IssuedDate) })
	return certs, nil
}

func (repo *enrollRepository) QueryCertificatesByStudent(ctx context.Context, studentID string) ([]enroll.Certificate, error) {
	certs, err := repo.QueryAllCertificates(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []enroll.Certificate
	for _, cert := range certs {
		if cert.StudentID == studentID {
			filtered = append(filtered, cert)
		}
	}
	return filtered, nil
}

func (repo *enrollRepository) DeleteCertificatesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.certificates, id)
	}
	return nil
}
