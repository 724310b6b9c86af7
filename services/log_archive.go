package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"schooladmin/models"
	"schooladmin/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const minArchiveAgeDays = 7

// ObjectPutter is the part of the S3 client used for archive uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// LogArchiveService flushes cached audit entries and moves old ones to S3.
type LogArchiveService struct {
	db       *gorm.DB
	activity *ActivityLogService
	s3       ObjectPutter
	bucket   string
}

// NewLogArchiveService loads the default AWS credential chain. Without a
// bucket the service still flushes but skips archiving.
func NewLogArchiveService(ctx context.Context, db *gorm.DB, activity *ActivityLogService, region, bucket string) *LogArchiveService {
	las := &LogArchiveService{db: db, activity: activity, bucket: bucket}
	if bucket == "" {
		return las
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; log archiving disabled")
		return las
	}
	las.s3 = s3.NewFromConfig(cfg)
	return las
}

// NewLogArchiveServiceWithClient is used when the S3 client is built elsewhere.
func NewLogArchiveServiceWithClient(db *gorm.DB, activity *ActivityLogService, client ObjectPutter, bucket string) *LogArchiveService {
	return &LogArchiveService{db: db, activity: activity, s3: client, bucket: bucket}
}

// ArchivedLog is the exported representation stored inside archives
type ArchivedLog struct {
	ID         uint           `json:"id"`
	UserID     *uint          `json:"user_id"`
	Username   string         `json:"username,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ArchiveOldLogs uploads entries older than daysOld to S3 as a zip and
// deletes them from the database. Returns the metadata row, or nil when
// nothing was old enough.
func (las *LogArchiveService) ArchiveOldLogs(ctx context.Context, daysOld int) (*models.LogArchive, error) {
	if daysOld < minArchiveAgeDays {
		return nil, utils.NewValidationError("minimum archive age is %d days", minArchiveAgeDays)
	}
	if las.s3 == nil || las.bucket == "" {
		return nil, utils.NewUnavailableError("AWS not configured")
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)

	var rows []models.ActivityLog
	if err := las.db.WithContext(ctx).
		Preload("User").
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch logs for archiving: %w", err)
	}
	if len(rows) == 0 {
		logrus.Info("No logs to archive")
		return nil, nil
	}

	archived := make([]ArchivedLog, 0, len(rows))
	for _, l := range rows {
		a := ArchivedLog{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			Resource:   l.Resource,
			ResourceID: l.ResourceID,
			IPAddress:  l.IPAddress,
			UserAgent:  l.UserAgent,
			CreatedAt:  l.CreatedAt,
		}
		if !l.Details.IsNull() {
			var details map[string]any
			if err := json.Unmarshal(l.Details, &details); err == nil {
				a.Details = details
			}
		}
		if l.User != nil {
			a.Username = l.User.Username
			a.UserRole = string(l.User.Role)
		}
		archived = append(archived, a)
	}

	fileName := fmt.Sprintf("activity_logs_%s.zip", cutoff.Format(models.DateLayout))
	buf, err := BuildLogZip(archived, fileName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("logs/archived/%d/%02d/%s", cutoff.Year(), cutoff.Month(), fileName)
	if _, err := las.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(las.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/zip"),
	}); err != nil {
		return nil, fmt.Errorf("upload archive to S3: %w", err)
	}
	logrus.Infof("Successfully uploaded archive to S3: %s", key)

	meta := models.LogArchive{
		FileName:    fileName,
		S3Key:       key,
		StartDate:   archived[0].CreatedAt,
		EndDate:     cutoff,
		RecordCount: len(archived),
		FileSize:    int64(buf.Len()),
		Status:      "completed",
	}
	ids := make([]uint, 0, len(archived))
	for _, a := range archived {
		ids = append(ids, a.ID)
	}
	// only the rows that went into the archive; a flush may have added older ones since
	err = las.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Delete(&models.ActivityLog{}).Error; err != nil {
			return fmt.Errorf("delete archived logs: %w", err)
		}
		return tx.Create(&meta).Error
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// BuildLogZip packs logs as activity_logs.json, activity_logs.csv and metadata.json.
func BuildLogZip(logs []ArchivedLog, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	logsFile, err := zw.Create("activity_logs.json")
	if err != nil {
		return nil, fmt.Errorf("create logs file in zip: %w", err)
	}
	enc := json.NewEncoder(logsFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(logs),
		"format_version": "1.0",
		"logs":           logs,
	}); err != nil {
		return nil, fmt.Errorf("encode logs: %w", err)
	}

	csvFile, err := zw.Create("activity_logs.csv")
	if err != nil {
		return nil, fmt.Errorf("create csv file in zip: %w", err)
	}
	cw := csv.NewWriter(csvFile)
	_ = cw.Write([]string{"ID", "User ID", "Username", "Role", "Action", "Resource", "Resource ID", "IP Address", "User Agent", "Created At", "Details"})
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = strconv.FormatUint(uint64(*l.UserID), 10)
		}
		details := ""
		if l.Details != nil {
			if b, err := json.Marshal(l.Details); err == nil {
				details = string(b)
			}
		}
		_ = cw.Write([]string{
			strconv.FormatUint(uint64(l.ID), 10),
			userID,
			l.Username,
			l.UserRole,
			l.Action,
			l.Resource,
			strconv.FormatUint(uint64(l.ResourceID), 10),
			l.IPAddress,
			l.UserAgent,
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	metaFile, err := zw.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("create metadata file in zip: %w", err)
	}
	meta := map[string]any{
		"file_name":      fileName,
		"created_at":     time.Now().UTC(),
		"record_count":   len(logs),
		"schema_version": "1.0",
		"description":    "School administration activity logs archive",
	}
	if len(logs) > 0 {
		meta["date_range"] = map[string]any{"start": logs[0].CreatedAt, "end": logs[len(logs)-1].CreatedAt}
	}
	if err := json.NewEncoder(metaFile).Encode(meta); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	return buf, nil
}

// ListArchives returns archive metadata, newest first.
func (las *LogArchiveService) ListArchives(ctx context.Context) ([]models.LogArchive, error) {
	var archives []models.LogArchive
	if err := las.db.WithContext(ctx).Order("created_at DESC").Find(&archives).Error; err != nil {
		return nil, fmt.Errorf("retrieve archived logs: %w", err)
	}
	return archives, nil
}

// RunMaintenance flushes entries queued more than a day ago, then archives.
func (las *LogArchiveService) RunMaintenance(ctx context.Context, archiveAfterDays int) {
	if las.activity != nil {
		if _, err := las.activity.Flush(ctx, time.Now().Add(-logCacheTTL)); err != nil {
			logrus.WithError(err).Warn("log flush failed")
		}
	}
	if las.s3 == nil {
		return
	}
	if _, err := las.ArchiveOldLogs(ctx, archiveAfterDays); err != nil {
		logrus.WithError(err).Warn("log archive failed")
	}
}

// StartLogMaintenanceScheduler runs maintenance hourly on a cron. The caller stops the returned cron.
func (las *LogArchiveService) StartLogMaintenanceScheduler(archiveAfterDays int) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		las.RunMaintenance(context.Background(), archiveAfterDays)
	}); err != nil {
		return nil, fmt.Errorf("schedule log maintenance: %w", err)
	}
	c.Start()
	logrus.Info("Log maintenance scheduler started")
	return c, nil
}
