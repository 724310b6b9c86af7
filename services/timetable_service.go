package services

import (
	"context"
	"fmt"
	"sort"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

type TimetableService struct {
	db *gorm.DB
}

func NewTimetableService(db *gorm.DB) *TimetableService {
	return &TimetableService{db: db}
}

type TimetableFilter struct {
	ClassID   uint
	TeacherID uint
}

type CreateTimetableInput struct {
	ClassID   uint   `json:"class_id" validate:"required"`
	SubjectID uint   `json:"subject_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	TeacherID *uint  `json:"teacher_id"`
}

// UpdateTimetableInput is a merge patch.
type UpdateTimetableInput struct {
	ClassID   *uint   `json:"class_id"`
	SubjectID *uint   `json:"subject_id"`
	DayOfWeek *string `json:"day_of_week"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	TeacherID *uint   `json:"teacher_id"`
}

// List orders entries Monday first, then by start time.
func (s *TimetableService) List(ctx context.Context, f TimetableFilter) ([]utils.TimetableDTO, error) {
	query := s.db.WithContext(ctx).Preload("Class").Preload("Subject").Preload("Teacher")
	if f.ClassID != 0 {
		query = query.Where("class_id = ?", f.ClassID)
	}
	if f.TeacherID != 0 {
		query = query.Where("teacher_id = ?", f.TeacherID)
	}

	var entries []models.Timetable
	if err := query.Order("start_time ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := models.WeekdayIndex(entries[i].DayOfWeek), models.WeekdayIndex(entries[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})

	out := make([]utils.TimetableDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, utils.ToTimetableDTO(e))
	}
	return out, nil
}

func (s *TimetableService) Create(ctx context.Context, in CreateTimetableInput) (*models.Timetable, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	entry := models.Timetable{ClassID: in.ClassID, SubjectID: in.SubjectID, TeacherID: in.TeacherID}
	var err error
	if entry.DayOfWeek, err = parseWeekday(in.DayOfWeek); err != nil {
		return nil, err
	}
	if entry.StartTime, err = parseClockField(in.StartTime); err != nil {
		return nil, err
	}
	if entry.EndTime, err = parseClockField(in.EndTime); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkEntry(tx, &entry); err != nil {
			return err
		}
		if err := tx.Omit("Class", "Subject", "Teacher").Create(&entry).Error; err != nil {
			return fmt.Errorf("create timetable entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *TimetableService) Update(ctx context.Context, id uint, in UpdateTimetableInput) (*models.Timetable, error) {
	var entry models.Timetable
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &entry, id, "Timetable entry"); err != nil {
			return err
		}

		var err error
		if in.StartTime != nil {
			if entry.StartTime, err = parseClockField(*in.StartTime); err != nil {
				return err
			}
		}
		if in.EndTime != nil {
			if entry.EndTime, err = parseClockField(*in.EndTime); err != nil {
				return err
			}
		}
		if in.DayOfWeek != nil {
			if entry.DayOfWeek, err = parseWeekday(*in.DayOfWeek); err != nil {
				return err
			}
		}
		if in.ClassID != nil {
			entry.ClassID = *in.ClassID
		}
		if in.SubjectID != nil {
			entry.SubjectID = *in.SubjectID
		}
		if in.TeacherID != nil {
			entry.TeacherID = in.TeacherID
		}

		if err := s.checkEntry(tx, &entry); err != nil {
			return err
		}
		if err := tx.Omit("Class", "Subject", "Teacher").Save(&entry).Error; err != nil {
			return fmt.Errorf("update timetable entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes the entry permanently.
func (s *TimetableService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Timetable{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete timetable entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewNotFoundError("Timetable entry not found")
	}
	return nil
}

// checkEntry validates references and the no-overlap rule for entry's class and day.
func (s *TimetableService) checkEntry(tx *gorm.DB, entry *models.Timetable) error {
	if entry.EndTime <= entry.StartTime {
		return utils.NewValidationError("end_time must be after start_time")
	}
	if err := requireRow(tx, &models.Class{}, entry.ClassID, "Class"); err != nil {
		return err
	}
	if err := requireRow(tx, &models.Subject{}, entry.SubjectID, "Subject"); err != nil {
		return err
	}
	if entry.TeacherID != nil {
		if err := requireRow(tx, &models.User{}, *entry.TeacherID, "Teacher"); err != nil {
			return err
		}
	}

	query := tx.Preload("Subject").Preload("Teacher").
		Where("class_id = ? AND day_of_week = ?", entry.ClassID, entry.DayOfWeek)
	if entry.ID != 0 {
		query = query.Where("id <> ?", entry.ID)
	}
	var sameDay []models.Timetable
	if err := query.Order("start_time ASC").Find(&sameDay).Error; err != nil {
		return fmt.Errorf("check timetable overlap: %w", err)
	}

	for _, other := range sameDay {
		if !Overlaps(other.StartTime, other.EndTime, entry.StartTime, entry.EndTime) {
			continue
		}
		conflict := map[string]interface{}{
			"subject": other.Subject.Name,
			"teacher": nil,
			"time":    other.StartTime.String() + "-" + other.EndTime.String(),
		}
		if other.Teacher != nil {
			conflict["teacher"] = other.Teacher.Username
		}
		return utils.NewConflictError("Timetable entry overlaps with existing entry").With("conflict_with", conflict)
	}
	return nil
}

func parseWeekday(s string) (string, error) {
	day, ok := models.NormalizeWeekday(s)
	if !ok {
		return "", utils.NewValidationError("Invalid day_of_week. Use a weekday name such as Monday")
	}
	return day, nil
}

func parseClockField(s string) (models.Clock, error) {
	c, err := models.ParseClock(s)
	if err != nil {
		return 0, utils.NewValidationError("Invalid time format. Use HH:MM")
	}
	return c, nil
}
