package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestErrorKindStatus(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{KindValidation, 400},
		{KindAuthentication, 401},
		{KindAuthorization, 403},
		{KindNotFound, 404},
		{KindConflict, 400},
		{KindUnavailable, 503},
	}
	for _, tc := range tests {
		if got := tc.kind.Status(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestIsKindWrapped(t *testing.T) {
	err := fmt.Errorf("create: %w", NewConflictError("duplicate"))
	if !IsKind(err, KindConflict) {
		t.Fatalf("expected wrapped conflict to be detected")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("unexpected kind match")
	}
	if IsKind(errors.New("plain"), KindConflict) {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestErrorHandlerRendersDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return NewValidationError("Timetable conflict").With("conflict_with", fiber.Map{"subject": "Math"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("db down")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Timetable conflict" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
	if _, ok := body["conflict_with"]; !ok {
		t.Fatalf("expected conflict_with detail in body")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Name  string  `json:"name" validate:"required"`
		Marks float64 `json:"marks" validate:"gte=0,lte=100"`
	}

	if err := ValidateStruct(payload{Name: "x", Marks: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateStruct(payload{Marks: 120})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, ok := appErr.Details["fields"].(map[string]string)
	if !ok {
		t.Fatalf("expected fields detail")
	}
	if fields["name"] != "required" || fields["marks"] != "lte" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestGenerateReceiptNumber(t *testing.T) {
	day := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	got := GenerateReceiptNumber(day)
	if len(got) != len("RCT-20240305-")+8 || got[:13] != "RCT-20240305-" {
		t.Fatalf("unexpected receipt number %q", got)
	}
	if GenerateReceiptNumber(day) == got {
		t.Fatalf("expected distinct receipt numbers")
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(2.0 / 3.0 * 100); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
}
