package services

import (
	"context"
	"errors"
	"testing"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

var ctx = context.Background()

func ptr[T any](v T) *T { return &v }

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func seedClass(t *testing.T, db *gorm.DB, name string) models.Class {
	t.Helper()
	c := models.Class{Name: name}
	mustCreate(t, db, &c)
	return c
}

func seedSubject(t *testing.T, db *gorm.DB, name, code string) models.Subject {
	t.Helper()
	s := models.Subject{Name: name, Code: code}
	mustCreate(t, db, &s)
	return s
}

func seedTeacher(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@school.com", Password: "x", Role: models.RoleTeacher, IsActive: true}
	mustCreate(t, db, &u)
	return u
}

func seedStudent(t *testing.T, db *gorm.DB, admission string, classID *uint) models.Student {
	t.Helper()
	dob, _ := models.ParseDate("2015-05-01")
	s := models.Student{
		AdmissionNumber: admission,
		FirstName:       "First" + admission,
		LastName:        "Last",
		DateOfBirth:     dob,
		Gender:          "female",
		ClassID:         classID,
		AdmissionDate:   models.Today(),
		IsActive:        true,
	}
	mustCreate(t, db, &s)
	return s
}

func assertKind(t *testing.T, err error, kind utils.ErrorKind) *utils.AppError {
	t.Helper()
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
	return appErr
}
