package services

import (
	"errors"
	"fmt"

	"schooladmin/database"
	"schooladmin/utils"

	"gorm.io/gorm"
)

// requireRow loads id into dest, mapping a missing row to NotFoundError "<label> not found".
func requireRow(db *gorm.DB, dest interface{}, id uint, label string) error {
	if err := db.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("%s not found", label)
		}
		return fmt.Errorf("load %s: %w", label, err)
	}
	return nil
}

// conflictOr maps unique violations to ConflictError(msg) and wraps anything else.
func conflictOr(err error, msg, op string) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return utils.NewConflictError("%s", msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
