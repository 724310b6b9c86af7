package utils

import (
	"time"

	"schooladmin/models"
)

// Compact representations used across APIs
type UserShort struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func ToUserShort(u models.User) UserShort {
	return UserShort{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

type StudentShort struct {
	ID              uint   `json:"id"`
	AdmissionNumber string `json:"admission_number"`
	Name            string `json:"name"`
	ClassID         *uint  `json:"class_id"`
}

func ToStudentShort(s models.Student) StudentShort {
	return StudentShort{ID: s.ID, AdmissionNumber: s.AdmissionNumber, Name: s.FullName(), ClassID: s.ClassID}
}

type FeeDTO struct {
	ID              uint        `json:"id"`
	StudentID       uint        `json:"student_id"`
	StudentName     string      `json:"student_name"`
	AdmissionNumber string      `json:"admission_number"`
	Amount          float64     `json:"amount"`
	PaymentDate     models.Date `json:"payment_date"`
	Term            string      `json:"term"`
	PaymentMethod   string      `json:"payment_method"`
	ReceiptNumber   *string     `json:"receipt_number"`
	Notes           string      `json:"notes"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ToFeeDTO expects Student to be preloaded.
func ToFeeDTO(f models.Fee) FeeDTO {
	return FeeDTO{
		ID:              f.ID,
		StudentID:       f.StudentID,
		StudentName:     f.Student.FullName(),
		AdmissionNumber: f.Student.AdmissionNumber,
		Amount:          f.Amount,
		PaymentDate:     f.PaymentDate,
		Term:            f.Term,
		PaymentMethod:   f.PaymentMethod,
		ReceiptNumber:   f.ReceiptNumber,
		Notes:           f.Notes,
		CreatedAt:       f.CreatedAt,
	}
}

type TimetableDTO struct {
	ID          uint         `json:"id"`
	ClassID     uint         `json:"class_id"`
	ClassName   string       `json:"class_name"`
	SubjectID   uint         `json:"subject_id"`
	SubjectName string       `json:"subject_name"`
	TeacherID   *uint        `json:"teacher_id"`
	TeacherName string       `json:"teacher_name,omitempty"`
	DayOfWeek   string       `json:"day_of_week"`
	StartTime   models.Clock `json:"start_time"`
	EndTime     models.Clock `json:"end_time"`
}

// ToTimetableDTO expects Class, Subject and Teacher to be preloaded.
func ToTimetableDTO(t models.Timetable) TimetableDTO {
	dto := TimetableDTO{
		ID:          t.ID,
		ClassID:     t.ClassID,
		ClassName:   t.Class.Name,
		SubjectID:   t.SubjectID,
		SubjectName: t.Subject.Name,
		TeacherID:   t.TeacherID,
		DayOfWeek:   t.DayOfWeek,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
	}
	if t.Teacher != nil {
		dto.TeacherName = t.Teacher.Username
	}
	return dto
}

type ResultDTO struct {
	ID          uint    `json:"id"`
	StudentID   uint    `json:"student_id"`
	StudentName string  `json:"student_name,omitempty"`
	SubjectID   uint    `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	SubjectCode string  `json:"subject_code"`
	Term        string  `json:"term"`
	Marks       float64 `json:"marks"`
	Grade       string  `json:"grade"`
	Remarks     string  `json:"remarks"`
}

// ToResultDTO expects Subject (and optionally Student) to be preloaded.
func ToResultDTO(r models.Result) ResultDTO {
	dto := ResultDTO{
		ID:          r.ID,
		StudentID:   r.StudentID,
		SubjectID:   r.SubjectID,
		SubjectName: r.Subject.Name,
		SubjectCode: r.Subject.Code,
		Term:        r.Term,
		Marks:       r.Marks,
		Grade:       r.Grade,
		Remarks:     r.Remarks,
	}
	if r.Student.ID != 0 {
		dto.StudentName = r.Student.FullName()
	}
	return dto
}
