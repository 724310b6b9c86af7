package services

import (
	"context"
	"fmt"
	"strings"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

const msgDuplicateAdmission = "Admission number already exists"

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

// StudentFilter narrows List. IsActive defaults to true.
type StudentFilter struct {
	ClassID  *uint
	IsActive *bool
}

type CreateStudentInput struct {
	AdmissionNumber string `json:"admission_number" validate:"required,max=20"`
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	DateOfBirth     string `json:"date_of_birth" validate:"required"`
	Gender          string `json:"gender" validate:"required,max=10"`
	Address         string `json:"address" validate:"max=200"`
	Phone           string `json:"phone" validate:"max=20"`
	Email           string `json:"email" validate:"max=120"`
	ClassID         *uint  `json:"class_id"`
	AdmissionDate   string `json:"admission_date"`
	IsActive        *bool  `json:"is_active"`
}

// UpdateStudentInput is a merge patch; nil fields are left unchanged.
type UpdateStudentInput struct {
	AdmissionNumber *string `json:"admission_number" validate:"omitempty,min=1,max=20"`
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	DateOfBirth     *string `json:"date_of_birth"`
	Gender          *string `json:"gender" validate:"omitempty,max=10"`
	Address         *string `json:"address" validate:"omitempty,max=200"`
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	Email           *string `json:"email" validate:"omitempty,max=120"`
	ClassID         *uint   `json:"class_id"`
	AdmissionDate   *string `json:"admission_date"`
	IsActive        *bool   `json:"is_active"`
}

func (s *StudentService) List(ctx context.Context, f StudentFilter) ([]models.Student, error) {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}

	query := s.db.WithContext(ctx).Preload("Class").Where("is_active = ?", active)
	if f.ClassID != nil {
		query = query.Where("class_id = ?", *f.ClassID)
	}

	var students []models.Student
	if err := query.Order("id ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Get returns the student regardless of is_active.
func (s *StudentService) Get(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := requireRow(s.db.WithContext(ctx).Preload("Class"), &student, id, "Student"); err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentService) Create(ctx context.Context, in CreateStudentInput) (*models.Student, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	dob, err := parseDateField(in.DateOfBirth, "date_of_birth")
	if err != nil {
		return nil, err
	}
	admitted := models.Today()
	if strings.TrimSpace(in.AdmissionDate) != "" {
		if admitted, err = parseDateField(in.AdmissionDate, "admission_date"); err != nil {
			return nil, err
		}
	}

	student := models.Student{
		AdmissionNumber: strings.TrimSpace(in.AdmissionNumber),
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		DateOfBirth:     dob,
		Gender:          in.Gender,
		Address:         in.Address,
		Phone:           in.Phone,
		Email:           in.Email,
		ClassID:         in.ClassID,
		AdmissionDate:   admitted,
		IsActive:        in.IsActive == nil || *in.IsActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if student.ClassID != nil {
			if err := requireRow(tx, &models.Class{}, *student.ClassID, "Class"); err != nil {
				return err
			}
		}
		return conflictOr(tx.Create(&student).Error, msgDuplicateAdmission, "create student")
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentService) Update(ctx context.Context, id uint, in UpdateStudentInput) (*models.Student, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	var student models.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &student, id, "Student"); err != nil {
			return err
		}

		if in.AdmissionNumber != nil {
			student.AdmissionNumber = strings.TrimSpace(*in.AdmissionNumber)
		}
		if in.FirstName != nil {
			student.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			student.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.DateOfBirth != nil {
			dob, err := parseDateField(*in.DateOfBirth, "date_of_birth")
			if err != nil {
				return err
			}
			student.DateOfBirth = dob
		}
		if in.AdmissionDate != nil {
			d, err := parseDateField(*in.AdmissionDate, "admission_date")
			if err != nil {
				return err
			}
			student.AdmissionDate = d
		}
		if in.Gender != nil {
			student.Gender = *in.Gender
		}
		if in.Address != nil {
			student.Address = *in.Address
		}
		if in.Phone != nil {
			student.Phone = *in.Phone
		}
		if in.Email != nil {
			student.Email = *in.Email
		}
		if in.ClassID != nil {
			if err := requireRow(tx, &models.Class{}, *in.ClassID, "Class"); err != nil {
				return err
			}
			student.ClassID = in.ClassID
		}
		if in.IsActive != nil {
			student.IsActive = *in.IsActive
		}

		return conflictOr(tx.Omit("Class").Save(&student).Error, msgDuplicateAdmission, "update student")
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Deactivate flips is_active off; the row and its history remain.
func (s *StudentService) Deactivate(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate student: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// RowsAffected is 0 for an already inactive row on some drivers
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("look up student: %w", err)
		}
		if count == 0 {
			return utils.NewNotFoundError("Student not found")
		}
	}
	return nil
}

func parseDateField(value, field string) (models.Date, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, utils.NewValidationError("Invalid date format for %s. Use YYYY-MM-DD", field)
	}
	return d, nil
}
