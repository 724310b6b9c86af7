package seeders

import (
	"errors"
	"testing"

	"schooladmin/database/dbtest"
	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

func TestSeedAllIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)

	if err := SeedAll(db); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedAll(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var users, classes, subjects int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Class{}).Count(&classes)
	db.Model(&models.Subject{}).Count(&subjects)
	if users != 6 || classes != 10 || subjects != 10 {
		t.Fatalf("unexpected counts users=%d classes=%d subjects=%d", users, classes, subjects)
	}

	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if admin.Role != models.RoleAdmin || !admin.IsActive {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if err := utils.CheckPassword("admin123", admin.Password); err != nil {
		t.Fatalf("admin password not hashed as expected: %v", err)
	}

	var withTeacher int64
	db.Model(&models.Class{}).Where("teacher_id IS NOT NULL").Count(&withTeacher)
	if withTeacher != 5 {
		t.Fatalf("expected 5 classes with a form teacher, got %d", withTeacher)
	}
}

func TestSeedStopsWhenCountFails(t *testing.T) {
	db := dbtest.Open(t)
	if err := db.Callback().Query().Before("gorm:query").Register("test:fail_query", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("connection reset"))
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if err := SeedAll(db); err == nil {
		t.Fatalf("expected seeding to fail when counting fails")
	}
	if _, err := SeedUsers(db); err == nil {
		t.Fatalf("expected SeedUsers to fail when counting fails")
	}
	if err := SeedSubjects(db); err == nil {
		t.Fatalf("expected SeedSubjects to fail when counting fails")
	}
}
