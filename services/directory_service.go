package services

import (
	"context"
	"fmt"
	"strings"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

// DirectoryService manages classes, subjects and staff accounts.
type DirectoryService struct {
	db *gorm.DB
}

func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

type CreateClassInput struct {
	Name      string `json:"name" validate:"required,max=50"`
	TeacherID *uint  `json:"teacher_id"`
}

type CreateSubjectInput struct {
	Name string `json:"name" validate:"required,max=50"`
	Code string `json:"code" validate:"required,max=10"`
}

type CreateUserInput struct {
	Username string      `json:"username" validate:"required,max=80"`
	Email    string      `json:"email" validate:"required,email,max=120"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required"`
}

type ClassDetail struct {
	models.Class
	StudentCount int64 `json:"student_count"`
}

func (s *DirectoryService) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := s.db.WithContext(ctx).Preload("Teacher").Order("id ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// GetClass returns the class with its active student count.
func (s *DirectoryService) GetClass(ctx context.Context, id uint) (*ClassDetail, error) {
	db := s.db.WithContext(ctx)
	var detail ClassDetail
	if err := requireRow(db.Preload("Teacher"), &detail.Class, id, "Class"); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Student{}).
		Where("class_id = ? AND is_active = ?", id, true).
		Count(&detail.StudentCount).Error; err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	return &detail, nil
}

func (s *DirectoryService) CreateClass(ctx context.Context, in CreateClassInput) (*models.Class, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	class := models.Class{Name: strings.TrimSpace(in.Name), TeacherID: in.TeacherID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if class.TeacherID != nil {
			if err := requireRow(tx, &models.User{}, *class.TeacherID, "Teacher"); err != nil {
				return err
			}
		}
		return conflictOr(tx.Omit("Teacher").Create(&class).Error, "Class name already exists", "create class")
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (s *DirectoryService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (s *DirectoryService) CreateSubject(ctx context.Context, in CreateSubjectInput) (*models.Subject, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	subject := models.Subject{Name: strings.TrimSpace(in.Name), Code: strings.ToUpper(strings.TrimSpace(in.Code))}
	if err := s.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, conflictOr(err, "Subject name or code already exists", "create subject")
	}
	return &subject, nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	query := s.db.WithContext(ctx)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var users []models.User
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser adds an active staff account with a bcrypt-hashed password.
func (s *DirectoryService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, utils.NewValidationError("Invalid role. Use admin or teacher")
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: in.Username, Email: in.Email, Password: hashed, Role: in.Role, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, conflictOr(err, "Username or email already exists", "create user")
	}
	return &user, nil
}

// SetUserActive enables or disables login for an account.
func (s *DirectoryService) SetUserActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &user, id, "User"); err != nil {
			return err
		}
		user.IsActive = active
		if err := tx.Model(&user).Update("is_active", active).Error; err != nil {
			return fmt.Errorf("update user status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
