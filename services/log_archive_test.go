package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"schooladmin/database/dbtest"
	"schooladmin/models"
	"schooladmin/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	key      string
	body     []byte
	onUpload func()
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.key = aws.ToString(in.Key)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	if f.onUpload != nil {
		f.onUpload()
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveOldLogs(t *testing.T) {
	db := dbtest.Open(t)
	admin := seedTeacher(t, db, "admin")

	old := models.ActivityLog{UserID: &admin.ID, Action: "DELETE", Resource: "students", Details: models.JSON(`{"reason":"left"}`)}
	old.CreatedAt = time.Now().AddDate(0, 0, -40)
	fresh := models.ActivityLog{UserID: &admin.ID, Action: "LOGIN", Resource: "auth"}
	fresh.CreatedAt = time.Now().Add(-time.Hour)
	mustCreate(t, db, &old)
	mustCreate(t, db, &fresh)

	putter := &fakePutter{}
	svc := NewLogArchiveServiceWithClient(db, nil, putter, "school-logs")

	meta, err := svc.ArchiveOldLogs(ctx, 30)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if meta == nil || meta.RecordCount != 1 || meta.Status != "completed" || meta.S3Key != putter.key {
		t.Fatalf("unexpected archive metadata: %+v (uploaded %q)", meta, putter.key)
	}
	if !strings.HasPrefix(putter.key, "logs/archived/") || !strings.HasSuffix(putter.key, ".zip") {
		t.Fatalf("unexpected key %q", putter.key)
	}

	zr, err := zip.NewReader(bytes.NewReader(putter.body), int64(len(putter.body)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"activity_logs.json", "activity_logs.csv", "metadata.json"} {
		if !names[want] {
			t.Fatalf("zip is missing %s: %v", want, names)
		}
	}

	var remaining []models.ActivityLog
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Action != "LOGIN" {
		t.Fatalf("only the fresh entry must remain: %+v", remaining)
	}

	archives, err := svc.ListArchives(ctx)
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("expected one archive row, got %d", len(archives))
	}

	again, err := svc.ArchiveOldLogs(ctx, 30)
	if err != nil || again != nil {
		t.Fatalf("nothing left to archive, got %+v, %v", again, err)
	}
}

func TestArchiveOldLogsErrors(t *testing.T) {
	db := dbtest.Open(t)

	_, err := NewLogArchiveServiceWithClient(db, nil, &fakePutter{}, "bucket").ArchiveOldLogs(ctx, 3)
	assertKind(t, err, utils.KindValidation)

	_, err = NewLogArchiveServiceWithClient(db, nil, nil, "").ArchiveOldLogs(ctx, 30)
	assertKind(t, err, utils.KindUnavailable)
}

func TestArchiveKeepsRowsAddedDuringUpload(t *testing.T) {
	db := dbtest.Open(t)

	old := models.ActivityLog{Action: "UPDATE", Resource: "fees"}
	old.CreatedAt = time.Now().AddDate(0, 0, -40)
	mustCreate(t, db, &old)

	putter := &fakePutter{onUpload: func() {
		late := models.ActivityLog{Action: "CREATE", Resource: "students"}
		late.CreatedAt = time.Now().AddDate(0, 0, -35)
		mustCreate(t, db, &late)
	}}
	meta, err := NewLogArchiveServiceWithClient(db, nil, putter, "school-logs").ArchiveOldLogs(ctx, 30)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if meta.RecordCount != 1 {
		t.Fatalf("expected one archived row, got %d", meta.RecordCount)
	}

	var remaining []models.ActivityLog
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Action != "CREATE" {
		t.Fatalf("row written after the fetch must survive: %+v", remaining)
	}
}
