package services

import (
	"encoding/json"
	"testing"
	"time"

	"schooladmin/database/dbtest"
	"schooladmin/models"
)

func TestRecordWithoutRedisWritesDatabase(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewActivityLogService(db, nil)
	admin := seedTeacher(t, db, "admin")

	err := svc.Record(ctx, models.ActivityEntry{
		UserID:     &admin.ID,
		Action:     "CREATE",
		Resource:   "students",
		ResourceID: 7,
		Details:    map[string]string{"admission_number": "ADM007"},
		RequestID:  "req-1",
		Method:     "POST",
		Path:       "/api/students",
		StatusCode: 201,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	var rows []models.ActivityLog
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].Action != "CREATE" || rows[0].ResourceID != 7 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	var details map[string]interface{}
	if err := json.Unmarshal(rows[0].Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if details["request_id"] != "req-1" || details["integrity_hash"] == "" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestNilActivityLogServiceDiscards(t *testing.T) {
	var svc *ActivityLogService
	if err := svc.Record(ctx, models.ActivityEntry{Action: "LOGIN"}); err != nil {
		t.Fatalf("nil service must discard, got %v", err)
	}
}

func TestIntegrityHashIsStable(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := models.ActivityLog{Action: "UPDATE", Resource: "fees", ResourceID: 3}
	a.CreatedAt = at
	b := a
	if IntegrityHash(a) != IntegrityHash(b) {
		t.Fatalf("hash must be deterministic")
	}
	b.ResourceID = 4
	if IntegrityHash(a) == IntegrityHash(b) {
		t.Fatalf("hash must change with the resource id")
	}
	if len(IntegrityHash(a)) != 32 {
		t.Fatalf("expected hex md5, got %q", IntegrityHash(a))
	}
}

func TestListLogsAndStats(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewActivityLogService(db, nil)
	alice := seedTeacher(t, db, "alice")
	bob := seedTeacher(t, db, "bob")

	// Wednesday
	now := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	entries := []struct {
		user     uint
		action   string
		resource string
		at       time.Time
	}{
		{alice.ID, "CREATE", "students", now.Add(-time.Hour)},
		{alice.ID, "UPDATE", "students", now.AddDate(0, 0, -2)},
		{bob.ID, "CREATE", "fees", now.AddDate(0, 0, -5)},
		{alice.ID, "LOGIN", "auth", now.AddDate(0, -2, 0)},
	}
	for _, e := range entries {
		l := models.ActivityLog{UserID: ptr(e.user), Action: e.action, Resource: e.resource}
		l.CreatedAt = e.at
		mustCreate(t, db, &l)
	}

	t.Run("list filters and pages", func(t *testing.T) {
		page, err := svc.ListLogs(ctx, LogFilter{UserID: alice.ID, Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 3 || page.TotalPages != 2 || len(page.Logs) != 2 {
			t.Fatalf("unexpected page: total=%d pages=%d logs=%d", page.Total, page.TotalPages, len(page.Logs))
		}
		if page.Logs[0].Action != "CREATE" || page.Logs[0].User == nil || page.Logs[0].User.Username != "alice" {
			t.Fatalf("expected newest first with user: %+v", page.Logs[0])
		}

		byResource, err := svc.ListLogs(ctx, LogFilter{Resource: "fees"})
		if err != nil {
			t.Fatalf("list by resource: %v", err)
		}
		if byResource.Total != 1 || byResource.Limit != 50 || byResource.Page != 1 {
			t.Fatalf("unexpected page: %+v", byResource)
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(ctx, now)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Total != 4 || stats.TotalToday != 1 || stats.TotalThisWeek != 2 || stats.TotalThisMonth != 3 {
			t.Fatalf("unexpected counts: %+v", stats)
		}
		if stats.ActionBreakdown["CREATE"] != 2 || stats.ResourceBreakdown["students"] != 2 {
			t.Fatalf("unexpected breakdown: %v %v", stats.ActionBreakdown, stats.ResourceBreakdown)
		}
		if len(stats.TopUsers) != 2 || stats.TopUsers[0].Username != "alice" || stats.TopUsers[0].Count != 2 {
			t.Fatalf("unexpected top users: %+v", stats.TopUsers)
		}
	})
}
