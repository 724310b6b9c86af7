package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a staff account (admin or teacher)
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:80;not null;uniqueIndex"`
	Email    string `json:"email" gorm:"size:120;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Role     Role   `json:"role" gorm:"size:20;not null;default:'teacher'"`
	IsActive bool   `json:"is_active" gorm:"not null"`
}

// Student model
type Student struct {
	BaseModel
	AdmissionNumber string `json:"admission_number" gorm:"size:20;not null;uniqueIndex"`
	FirstName       string `json:"first_name" gorm:"size:50;not null"`
	LastName        string `json:"last_name" gorm:"size:50;not null"`
	DateOfBirth     Date   `json:"date_of_birth" gorm:"not null"`
	Gender          string `json:"gender" gorm:"size:10;not null"`
	Address         string `json:"address" gorm:"size:200"`
	Phone           string `json:"phone" gorm:"size:20"`
	Email           string `json:"email" gorm:"size:120"`
	ClassID         *uint  `json:"class_id" gorm:"index"`
	AdmissionDate   Date   `json:"admission_date"`
	IsActive        bool   `json:"is_active" gorm:"not null;index"`

	// Relationships
	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Class model
type Class struct {
	BaseModel
	Name      string `json:"name" gorm:"size:50;not null;uniqueIndex"`
	TeacherID *uint  `json:"teacher_id"`

	// Relationships
	Teacher *User `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name string `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Code string `json:"code" gorm:"size:10;not null;uniqueIndex"`
}

// Fee records one payment event; several rows per student and term are allowed.
type Fee struct {
	BaseModel
	StudentID     uint    `json:"student_id" gorm:"not null;index"`
	Amount        float64 `json:"amount" gorm:"not null"`
	PaymentDate   Date    `json:"payment_date" gorm:"index"`
	Term          string  `json:"term" gorm:"size:20;not null;index"`
	PaymentMethod string  `json:"payment_method" gorm:"size:50"`
	ReceiptNumber *string `json:"receipt_number" gorm:"size:50;uniqueIndex"`
	Notes         string  `json:"notes" gorm:"type:text"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Attendance holds at most one row per student and day.
type Attendance struct {
	BaseModel
	StudentID uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_student_date"`
	Date      Date             `json:"date" gorm:"not null;uniqueIndex:idx_attendance_student_date;index"`
	Status    AttendanceStatus `json:"status" gorm:"size:10;not null"`
	Remarks   string           `json:"remarks" gorm:"size:200"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Timetable is one weekly lesson slot of a class.
type Timetable struct {
	BaseModel
	ClassID   uint   `json:"class_id" gorm:"not null;index:idx_timetable_class_day"`
	SubjectID uint   `json:"subject_id" gorm:"not null"`
	DayOfWeek string `json:"day_of_week" gorm:"size:10;not null;index:idx_timetable_class_day"`
	StartTime Clock  `json:"start_time" gorm:"not null"`
	EndTime   Clock  `json:"end_time" gorm:"not null"`
	TeacherID *uint  `json:"teacher_id" gorm:"index"`

	// Relationships
	Class   Class   `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Teacher *User   `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

func (Timetable) TableName() string {
	return "timetable"
}

// Result holds at most one row per student, subject and term.
type Result struct {
	BaseModel
	StudentID uint    `json:"student_id" gorm:"not null;uniqueIndex:idx_result_student_subject_term"`
	SubjectID uint    `json:"subject_id" gorm:"not null;uniqueIndex:idx_result_student_subject_term"`
	Term      string  `json:"term" gorm:"size:20;not null;uniqueIndex:idx_result_student_subject_term"`
	Marks     float64 `json:"marks" gorm:"not null"`
	Grade     string  `json:"grade" gorm:"size:2"`
	Remarks   string  `json:"remarks" gorm:"size:200"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     *uint  `json:"user_id" gorm:"index"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ActivityEntry describes one audited action before it is persisted.
type ActivityEntry struct {
	UserID     *uint
	Action     string
	Resource   string
	ResourceID uint
	Details    interface{}
	IPAddress  string
	UserAgent  string
	RequestID  string
	Method     string
	Path       string
	StatusCode int
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending'"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}

// All lists every model handled by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Class{},
		&Subject{},
		&Student{},
		&Fee{},
		&Attendance{},
		&Timetable{},
		&Result{},
		&ActivityLog{},
		&LogArchive{},
	}
}
