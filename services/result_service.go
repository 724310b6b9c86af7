package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

const msgDuplicateResult = "Result already exists for this student, subject, and term"

type ResultService struct {
	db         *gorm.DB
	attendance *AttendanceService
}

func NewResultService(db *gorm.DB, attendance *AttendanceService) *ResultService {
	return &ResultService{db: db, attendance: attendance}
}

type ResultFilter struct {
	StudentID uint
	SubjectID uint
	Term      string
	ClassID   uint
}

type CreateResultInput struct {
	StudentID uint     `json:"student_id" validate:"required"`
	SubjectID uint     `json:"subject_id" validate:"required"`
	Term      string   `json:"term" validate:"required,max=20"`
	Marks     *float64 `json:"marks" validate:"required,gte=0,lte=100"`
	Remarks   string   `json:"remarks" validate:"max=200"`
}

// UpdateResultInput is a merge patch; student and subject are fixed.
type UpdateResultInput struct {
	Marks   *float64 `json:"marks" validate:"omitempty,gte=0,lte=100"`
	Term    *string  `json:"term" validate:"omitempty,min=1,max=20"`
	Remarks *string  `json:"remarks" validate:"omitempty,max=200"`
}

// ReportCard is the payload rendered as JSON or PDF.
type ReportCard struct {
	Student           ReportCardStudent `json:"student"`
	Term              string            `json:"term"`
	Results           []ReportCardLine  `json:"results"`
	AttendanceSummary AttendanceSummary `json:"attendance_summary"`
	AttendanceWindow  *AttendanceWindow `json:"attendance_window,omitempty"`
	GeneratedOn       time.Time         `json:"generated_on"`
}

type ReportCardStudent struct {
	ID              uint        `json:"id"`
	AdmissionNumber string      `json:"admission_number"`
	Name            string      `json:"name"`
	Class           string      `json:"class,omitempty"`
	DateOfBirth     models.Date `json:"date_of_birth"`
}

type ReportCardLine struct {
	Subject     string  `json:"subject"`
	SubjectCode string  `json:"subject_code"`
	Marks       float64 `json:"marks"`
	Grade       string  `json:"grade"`
	Remarks     string  `json:"remarks"`
}

type AttendanceWindow struct {
	From models.Date `json:"from"`
	To   models.Date `json:"to"`
}

func (s *ResultService) List(ctx context.Context, f ResultFilter) ([]utils.ResultDTO, error) {
	query := s.db.WithContext(ctx).Preload("Student").Preload("Subject")
	if f.StudentID != 0 {
		query = query.Where("results.student_id = ?", f.StudentID)
	}
	if f.SubjectID != 0 {
		query = query.Where("results.subject_id = ?", f.SubjectID)
	}
	if f.Term != "" {
		query = query.Where("results.term = ?", f.Term)
	}
	if f.ClassID != 0 {
		query = query.Joins("JOIN students ON students.id = results.student_id").
			Where("students.class_id = ?", f.ClassID)
	}

	var results []models.Result
	if err := query.Order("results.term ASC").Order("results.id ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]utils.ResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, utils.ToResultDTO(r))
	}
	return out, nil
}

func (s *ResultService) Create(ctx context.Context, in CreateResultInput) (*models.Result, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	result := models.Result{
		StudentID: in.StudentID,
		SubjectID: in.SubjectID,
		Term:      strings.TrimSpace(in.Term),
		Marks:     *in.Marks,
		Grade:     Grade(*in.Marks),
		Remarks:   in.Remarks,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Student{}, in.StudentID, "Student"); err != nil {
			return err
		}
		if err := requireRow(tx, &models.Subject{}, in.SubjectID, "Subject"); err != nil {
			return err
		}
		return conflictOr(tx.Omit("Student", "Subject").Create(&result).Error, msgDuplicateResult, "create result")
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ResultService) Update(ctx context.Context, id uint, in UpdateResultInput) (*models.Result, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	var result models.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &result, id, "Result"); err != nil {
			return err
		}
		if in.Marks != nil {
			result.Marks = *in.Marks
			result.Grade = Grade(*in.Marks)
		}
		if in.Term != nil {
			result.Term = strings.TrimSpace(*in.Term)
		}
		if in.Remarks != nil {
			result.Remarks = *in.Remarks
		}
		return conflictOr(tx.Omit("Student", "Subject").Save(&result).Error, msgDuplicateResult, "update result")
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportCard gathers a student's term results and an attendance summary.
// The summary covers from..to when given, otherwise the whole register.
func (s *ResultService) ReportCard(ctx context.Context, studentID uint, term string, from, to models.Date) (*ReportCard, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, utils.NewValidationError("Term is required")
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return nil, utils.NewValidationError("to must not be before from")
	}

	db := s.db.WithContext(ctx)
	var student models.Student
	if err := requireRow(db.Preload("Class"), &student, studentID, "Student"); err != nil {
		return nil, err
	}

	var results []models.Result
	if err := db.Preload("Subject").
		Where("student_id = ? AND term = ?", studentID, term).
		Order("subject_id ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	card := &ReportCard{
		Student: ReportCardStudent{
			ID:              student.ID,
			AdmissionNumber: student.AdmissionNumber,
			Name:            student.FullName(),
			DateOfBirth:     student.DateOfBirth,
		},
		Term:        term,
		Results:     make([]ReportCardLine, 0, len(results)),
		GeneratedOn: time.Now().UTC(),
	}
	if student.Class != nil {
		card.Student.Class = student.Class.Name
	}
	for _, r := range results {
		card.Results = append(card.Results, ReportCardLine{
			Subject:     r.Subject.Name,
			SubjectCode: r.Subject.Code,
			Marks:       r.Marks,
			Grade:       r.Grade,
			Remarks:     r.Remarks,
		})
	}

	if s.attendance != nil {
		sum, err := s.attendance.Summary(ctx, studentID, from, to)
		if err != nil {
			return nil, err
		}
		card.AttendanceSummary = sum
	}
	if !from.IsZero() || !to.IsZero() {
		card.AttendanceWindow = &AttendanceWindow{From: from, To: to}
	}
	return card, nil
}
