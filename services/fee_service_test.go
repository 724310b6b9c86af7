package services

import (
	"strings"
	"testing"

	"schooladmin/database/dbtest"
	"schooladmin/utils"
)

func TestFeeRecordAndList(t *testing.T) {
	db := dbtest.Open(t)
	class := seedClass(t, db, "Grade 1A")
	paid := seedStudent(t, db, "ADM001", &class.ID)
	unpaid := seedStudent(t, db, "ADM002", &class.ID)
	inactive := seedStudent(t, db, "ADM003", nil)
	if err := db.Model(&inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	svc := NewFeeService(db, "Term 1 2024")

	first, err := svc.Record(ctx, RecordPaymentInput{StudentID: paid.ID, Amount: ptr(250.0), Term: "Term 1 2024", PaymentDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ReceiptNumber == nil || !strings.HasPrefix(*first.ReceiptNumber, "RCT-") {
		t.Fatalf("expected generated receipt, got %v", first.ReceiptNumber)
	}

	if _, err := svc.Record(ctx, RecordPaymentInput{StudentID: paid.ID, Amount: ptr(250.0), Term: "Term 1 2024", PaymentDate: "2024-02-10", ReceiptNumber: "R-2"}); err != nil {
		t.Fatalf("second installment: %v", err)
	}

	t.Run("record errors", func(t *testing.T) {
		tests := []struct {
			name string
			in   RecordPaymentInput
			kind utils.ErrorKind
		}{
			{"missing student id", RecordPaymentInput{Amount: ptr(10.0), Term: "T1"}, utils.KindValidation},
			{"unknown student", RecordPaymentInput{StudentID: 999, Amount: ptr(10.0), Term: "T1"}, utils.KindNotFound},
			{"non positive amount", RecordPaymentInput{StudentID: paid.ID, Amount: ptr(0.0), Term: "T1"}, utils.KindValidation},
			{"bad date", RecordPaymentInput{StudentID: paid.ID, Amount: ptr(10.0), Term: "T1", PaymentDate: "10/01/2024"}, utils.KindValidation},
			{"duplicate receipt", RecordPaymentInput{StudentID: unpaid.ID, Amount: ptr(10.0), Term: "T1", ReceiptNumber: "R-2"}, utils.KindConflict},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Record(ctx, tt.in)
				appErr := assertKind(t, err, tt.kind)
				if tt.kind == utils.KindConflict && appErr.Message != msgDuplicateReceipt {
					t.Fatalf("unexpected message %q", appErr.Message)
				}
			})
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		fees, err := svc.List(ctx, FeeFilter{StudentID: paid.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(fees) != 2 || fees[0].PaymentDate.String() != "2024-02-10" {
			t.Fatalf("unexpected fees: %+v", fees)
		}
		if fees[0].StudentName != "FirstADM001 Last" || fees[0].AdmissionNumber != "ADM001" {
			t.Fatalf("student not joined: %+v", fees[0])
		}
	})

	t.Run("unpaid uses default term", func(t *testing.T) {
		students, err := svc.Unpaid(ctx, "")
		if err != nil {
			t.Fatalf("unpaid: %v", err)
		}
		if len(students) != 1 || students[0].ID != unpaid.ID || students[0].ClassName != "Grade 1A" {
			t.Fatalf("unexpected unpaid list: %+v", students)
		}

		other, err := svc.Unpaid(ctx, "Term 2 2024")
		if err != nil {
			t.Fatalf("unpaid other term: %v", err)
		}
		if len(other) != 2 {
			t.Fatalf("expected both active students unpaid, got %+v", other)
		}
	})

	t.Run("update", func(t *testing.T) {
		updated, err := svc.Update(ctx, first.ID, UpdatePaymentInput{Amount: ptr(300.0), Notes: ptr("corrected")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Amount != 300 || updated.Notes != "corrected" || updated.StudentID != paid.ID {
			t.Fatalf("unexpected update: %+v", updated)
		}

		_, err = svc.Update(ctx, first.ID, UpdatePaymentInput{PaymentDate: ptr("2024-13-01")})
		assertKind(t, err, utils.KindValidation)

		_, err = svc.Update(ctx, 999, UpdatePaymentInput{Notes: ptr("x")})
		assertKind(t, err, utils.KindNotFound)
	})
}
