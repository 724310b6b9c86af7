package seeders

import (
	"fmt"

	"schooladmin/models"
	"schooladmin/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedAll runs all seeders. Each seeder skips tables that already hold rows.
func SeedAll(db *gorm.DB) error {
	logrus.Info("Starting database seeding...")

	teachers, err := SeedUsers(db)
	if err != nil {
		return err
	}
	if err := SeedClasses(db, teachers); err != nil {
		return err
	}
	if err := SeedSubjects(db); err != nil {
		return err
	}

	logrus.Info("Database seeding completed successfully!")
	return nil
}

// SeedUsers creates the bootstrap admin and five teachers.
func SeedUsers(db *gorm.DB) ([]models.User, error) {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logrus.Info("Users already seeded, skipping...")
		return nil, nil
	}

	users := []models.User{{Username: "admin", Email: "admin@school.com", Role: models.RoleAdmin}}
	for i := 1; i <= 5; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("teacher%d", i),
			Email:    fmt.Sprintf("teacher%d@school.com", i),
			Role:     models.RoleTeacher,
		})
	}

	for i := range users {
		password := users[i].Username + "123"
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		users[i].Password = hashed
		users[i].IsActive = true
	}

	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	logrus.Info("Users seeded successfully")
	return users[1:], nil
}

// SeedClasses assigns the first classes a form teacher in turn.
func SeedClasses(db *gorm.DB, teachers []models.User) error {
	var count int64
	if err := db.Model(&models.Class{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count classes: %w", err)
	}
	if count > 0 {
		logrus.Info("Classes already seeded, skipping...")
		return nil
	}

	names := []string{"Nursery", "KG", "Class 1", "Class 2", "Class 3", "Class 4", "Class 5", "Class 6", "Class 7", "Class 8"}
	classes := make([]models.Class, 0, len(names))
	for i, name := range names {
		class := models.Class{Name: name}
		if i < len(teachers) {
			id := teachers[i].ID
			class.TeacherID = &id
		}
		classes = append(classes, class)
	}

	if err := db.Create(&classes).Error; err != nil {
		return fmt.Errorf("seed classes: %w", err)
	}
	logrus.Info("Classes seeded successfully")
	return nil
}

func SeedSubjects(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Subject{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count subjects: %w", err)
	}
	if count > 0 {
		logrus.Info("Subjects already seeded, skipping...")
		return nil
	}

	subjects := []models.Subject{
		{Name: "Mathematics", Code: "MATH"},
		{Name: "English", Code: "ENG"},
		{Name: "Science", Code: "SCI"},
		{Name: "Social Studies", Code: "SOC"},
		{Name: "Computer Science", Code: "COMP"},
		{Name: "Art", Code: "ART"},
		{Name: "Music", Code: "MUS"},
		{Name: "Physical Education", Code: "PE"},
		{Name: "History", Code: "HIST"},
		{Name: "Geography", Code: "GEOG"},
	}
	if err := db.Create(&subjects).Error; err != nil {
		return fmt.Errorf("seed subjects: %w", err)
	}
	logrus.Info("Subjects seeded successfully")
	return nil
}
