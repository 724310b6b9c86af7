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

const msgDuplicateReceipt = "Receipt number already exists"

type FeeService struct {
	db          *gorm.DB
	defaultTerm string
}

func NewFeeService(db *gorm.DB, defaultTerm string) *FeeService {
	return &FeeService{db: db, defaultTerm: defaultTerm}
}

type FeeFilter struct {
	StudentID uint
	Term      string
}

type RecordPaymentInput struct {
	StudentID     uint     `json:"student_id" validate:"required"`
	Amount        *float64 `json:"amount" validate:"required,gt=0"`
	Term          string   `json:"term" validate:"required,max=20"`
	PaymentDate   string   `json:"payment_date"`
	PaymentMethod string   `json:"payment_method" validate:"max=50"`
	ReceiptNumber string   `json:"receipt_number" validate:"max=50"`
	Notes         string   `json:"notes"`
}

// UpdatePaymentInput is a merge patch; student_id cannot change.
type UpdatePaymentInput struct {
	Amount        *float64 `json:"amount" validate:"omitempty,gt=0"`
	Term          *string  `json:"term" validate:"omitempty,min=1,max=20"`
	PaymentDate   *string  `json:"payment_date"`
	PaymentMethod *string  `json:"payment_method" validate:"omitempty,max=50"`
	ReceiptNumber *string  `json:"receipt_number" validate:"omitempty,max=50"`
	Notes         *string  `json:"notes"`
}

// UnpaidStudent is an active student with no payment for a term.
type UnpaidStudent struct {
	ID              uint   `json:"id"`
	AdmissionNumber string `json:"admission_number"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ClassID         *uint  `json:"class_id"`
	ClassName       string `json:"class_name,omitempty"`
}

// DefaultTerm is used by Unpaid when no term is given.
func (s *FeeService) DefaultTerm() string {
	return s.defaultTerm
}

// List returns payments newest first, joined with the student's name.
func (s *FeeService) List(ctx context.Context, f FeeFilter) ([]utils.FeeDTO, error) {
	query := s.db.WithContext(ctx).Preload("Student")
	if f.StudentID != 0 {
		query = query.Where("student_id = ?", f.StudentID)
	}
	if f.Term != "" {
		query = query.Where("term = ?", f.Term)
	}

	var fees []models.Fee
	if err := query.Order("payment_date DESC").Order("id DESC").Find(&fees).Error; err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}

	out := make([]utils.FeeDTO, 0, len(fees))
	for _, fee := range fees {
		out = append(out, utils.ToFeeDTO(fee))
	}
	return out, nil
}

// Unpaid lists active students with no fee row for term. Partial payments count as paid.
func (s *FeeService) Unpaid(ctx context.Context, term string) ([]UnpaidStudent, error) {
	if strings.TrimSpace(term) == "" {
		term = s.defaultTerm
	}

	paid := s.db.Model(&models.Fee{}).Select("student_id").Where("term = ?", term)

	var students []models.Student
	if err := s.db.WithContext(ctx).
		Preload("Class").
		Where("is_active = ?", true).
		Where("id NOT IN (?)", paid).
		Order("id ASC").
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list unpaid students: %w", err)
	}

	out := make([]UnpaidStudent, 0, len(students))
	for _, st := range students {
		u := UnpaidStudent{
			ID:              st.ID,
			AdmissionNumber: st.AdmissionNumber,
			FirstName:       st.FirstName,
			LastName:        st.LastName,
			ClassID:         st.ClassID,
		}
		if st.Class != nil {
			u.ClassName = st.Class.Name
		}
		out = append(out, u)
	}
	return out, nil
}

// Record inserts a payment. Several payments per student and term are allowed.
func (s *FeeService) Record(ctx context.Context, in RecordPaymentInput) (*models.Fee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	paidOn := models.Today()
	if strings.TrimSpace(in.PaymentDate) != "" {
		d, err := parseDateField(in.PaymentDate, "payment_date")
		if err != nil {
			return nil, err
		}
		paidOn = d
	}

	receipt := strings.TrimSpace(in.ReceiptNumber)
	if receipt == "" {
		receipt = utils.GenerateReceiptNumber(time.Now())
	}

	fee := models.Fee{
		StudentID:     in.StudentID,
		Amount:        *in.Amount,
		PaymentDate:   paidOn,
		Term:          strings.TrimSpace(in.Term),
		PaymentMethod: in.PaymentMethod,
		ReceiptNumber: &receipt,
		Notes:         in.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &fee.Student, in.StudentID, "Student"); err != nil {
			return err
		}
		return conflictOr(tx.Omit("Student").Create(&fee).Error, msgDuplicateReceipt, "record payment")
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *FeeService) Update(ctx context.Context, id uint, in UpdatePaymentInput) (*models.Fee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	var fee models.Fee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &fee, id, "Fee"); err != nil {
			return err
		}
		if in.PaymentDate != nil {
			d, err := parseDateField(*in.PaymentDate, "payment_date")
			if err != nil {
				return err
			}
			fee.PaymentDate = d
		}
		if in.Amount != nil {
			fee.Amount = *in.Amount
		}
		if in.Term != nil {
			fee.Term = strings.TrimSpace(*in.Term)
		}
		if in.PaymentMethod != nil {
			fee.PaymentMethod = *in.PaymentMethod
		}
		if in.ReceiptNumber != nil {
			receipt := strings.TrimSpace(*in.ReceiptNumber)
			if receipt == "" {
				fee.ReceiptNumber = nil
			} else {
				fee.ReceiptNumber = &receipt
			}
		}
		if in.Notes != nil {
			fee.Notes = *in.Notes
		}
		return conflictOr(tx.Omit("Student").Save(&fee).Error, msgDuplicateReceipt, "update payment")
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}
