package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/policy"
	testutil "github.com/trezcool/elimu/tests"
)

func Test_courseApi_create(t *testing.T) {
	a := newTestApp(t)

	admin := a.createUser(t, "Admin", "admin", policy.RoleAdmin, true)
	mentor := a.createUser(t, "Sensei", "sensei", policy.RoleMentor, true)
	student := a.createUser(t, "Hero", "hero", policy.RoleStudent, true)

	tests := []httpTest{
		{
			name: "auth required", body: marshallObj(t, course.NewCourse{Title: "Go 101"}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "students cannot create courses", token: getToken(t, student),
			body:     marshallObj(t, course.NewCourse{Title: "Go 101"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errPermissionDenied),
		},
		{name: "title is required", token: getToken(t, mentor), body: marshallObj(t, course.NewCourse{}), wantCode: http.StatusBadRequest},
		{
			name: "mentor owns their course", token: getToken(t, mentor),
			body: marshallObj(t, course.NewCourse{Title: "Go 101"}), wantCode: http.StatusCreated,
		},
		{
			name: "admin assigns a mentor", token: getToken(t, admin),
			body:     marshallObj(t, course.NewCourse{Title: "K8s 101", MentorID: mentor.ID}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/courses", tt.token, tt.body)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var crs course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
					t.Fatalf("unmarshalling Course: %v", err)
				}
				if crs.ApprovalStatus != policy.CoursePending {
					t.Errorf("failed! ApprovalStatus = %v", crs.ApprovalStatus)
				}
				if crs.MentorID != mentor.ID {
					t.Errorf("failed! MentorID = %v", crs.MentorID)
				}
			}
		})
	}
}

func Test_courseApi_visibility(t *testing.T) {
	a := newTestApp(t)

	admin := a.createUser(t, "Admin", "admin", policy.RoleAdmin, true)
	mentor := a.createUser(t, "Sensei", "sensei", policy.RoleMentor, true)
	rival := a.createUser(t, "Rival", "rival", policy.RoleMentor, true)
	student := a.createUser(t, "Hero", "hero", policy.RoleStudent, true)

	now := time.Now().UTC()
	approved := testutil.CreateCourse(t, a.courseRepo, "Go 101", mentor.ID, policy.CourseApproved, now)
	pending := testutil.CreateCourse(t, a.courseRepo, "K8s 101", mentor.ID, policy.CoursePending, now.Add(time.Hour))

	tests := []httpTest{
		{name: "admin sees all", path: "/v1/courses", token: getToken(t, admin), wantData: marshallList(t, pending, approved)},
		{name: "student only sees approved courses", path: "/v1/courses", token: getToken(t, student), wantData: marshallList(t, approved)},
		{name: "owner sees their pending course", path: "/v1/courses", token: getToken(t, mentor), wantData: marshallList(t, pending, approved)},
		{
			name: "admin status filter", path: "/v1/courses?approval_status=" + policy.CoursePending,
			token: getToken(t, admin), wantData: marshallList(t, pending),
		},
		{
			name: "student status filter is ignored", path: "/v1/courses?approval_status=" + policy.CoursePending,
			token: getToken(t, student), wantData: marshallList(t, approved),
		},
		{name: "approved course detail", path: "/v1/courses/" + approved.ID, token: getToken(t, student), wantData: marshallObj(t, approved)},
		{
			name: "pending course detail is hidden", path: "/v1/courses/" + pending.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{
			name: "pending course detail is hidden from other mentors", path: "/v1/courses/" + pending.ID, token: getToken(t, rival),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{name: "owner's pending course detail", path: "/v1/courses/" + pending.ID, token: getToken(t, mentor), wantData: marshallObj(t, pending)},
		{
			name: "mentor lists their own courses", path: "/v1/courses/mentor/" + mentor.ID,
			token: getToken(t, mentor), wantData: marshallList(t, pending, approved),
		},
		{
			name: "mentor cannot list another mentor's courses", path: "/v1/courses/mentor/" + mentor.ID, token: getToken(t, rival),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errPermissionDenied),
		},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_approval(t *testing.T) {
	a := newTestApp(t)

	admin := a.createUser(t, "Admin", "admin", policy.RoleAdmin, true)
	mentor := a.createUser(t, "Sensei", "sensei", policy.RoleMentor, true)
	crs := testutil.CreateCourse(t, a.courseRepo, "Go 101", mentor.ID, policy.CoursePending)

	adminToken := getToken(t, admin)
	body := func(status string) []byte {
		return marshallObj(t, map[string]string{"status": status})
	}

	tests := []httpTest{
		{
			name: "approval requires admin", path: "/v1/courses/" + crs.ID + "/approval", token: getToken(t, mentor),
			body: body(policy.CourseApproved), wantCode: http.StatusForbidden, wantData: marshallObj(t, errPermissionDenied),
		},
		{
			name: "unknown status", path: "/v1/courses/" + crs.ID + "/approval", token: adminToken,
			body: body("lol"), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown course", path: "/v1/courses/ghost/approval", token: adminToken,
			body: body(policy.CourseApproved), wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{name: "approved", path: "/v1/courses/" + crs.ID + "/approval", token: adminToken, body: body(policy.CourseApproved)},
		{name: "rejected after approval", path: "/v1/courses/" + crs.ID + "/approval", token: adminToken, body: body(policy.CourseRejected)},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	got, err := a.courseRepo.GetCourseByID(context.Background(), crs.ID)
	if err != nil {
		t.Fatalf("GetCourseByID(): %v", err)
	}
	if got.ApprovalStatus != policy.CourseRejected {
		t.Errorf("failed! ApprovalStatus = %v", got.ApprovalStatus)
	}
}
