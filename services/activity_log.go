package services

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"schooladmin/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	logQueueKey = "logs:queue"
	logCacheTTL = 24 * time.Hour
)

// ActivityLogService writes the audit trail. Entries are queued in Redis
// when available and written straight to the database otherwise.
// A nil *ActivityLogService discards entries.
type ActivityLogService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewActivityLogService(db *gorm.DB, redisClient *redis.Client) *ActivityLogService {
	return &ActivityLogService{db: db, redis: redisClient}
}

// Record stores entry with an integrity hash over its identifying fields.
func (s *ActivityLogService) Record(ctx context.Context, entry models.ActivityEntry) error {
	if s == nil {
		return nil
	}

	now := time.Now()
	activityLog := models.ActivityLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	activityLog.CreatedAt = now

	details := map[string]interface{}{
		"original_details": entry.Details,
		"integrity_hash":   IntegrityHash(activityLog),
		"request_id":       entry.RequestID,
		"method":           entry.Method,
		"path":             entry.Path,
		"status_code":      entry.StatusCode,
		"timestamp_utc":    now.UTC().Unix(),
	}
	if b, err := json.Marshal(details); err == nil {
		activityLog.Details = b
	}

	if err := s.cache(ctx, activityLog); err != nil {
		if s.redis != nil {
			logrus.WithError(err).Warn("Failed to cache activity log, saving directly to database")
		}
		if dbErr := s.db.WithContext(ctx).Create(&activityLog).Error; dbErr != nil {
			return fmt.Errorf("save activity log: %w", dbErr)
		}
	}
	return nil
}

// IntegrityHash fingerprints a log row for tamper detection.
func IntegrityHash(l models.ActivityLog) string {
	var userID uint
	if l.UserID != nil {
		userID = *l.UserID
	}
	data := fmt.Sprintf("%d:%s:%s:%d:%s:%s:%s",
		userID,
		l.Action,
		l.Resource,
		l.ResourceID,
		l.IPAddress,
		l.UserAgent,
		l.CreatedAt.Format(time.RFC3339),
	)
	return fmt.Sprintf("%x", md5.Sum([]byte(data)))
}

func (s *ActivityLogService) cache(ctx context.Context, l models.ActivityLog) error {
	if s.redis == nil {
		return fmt.Errorf("redis client is nil")
	}

	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	var userID uint
	if l.UserID != nil {
		userID = *l.UserID
	}
	cacheKey := fmt.Sprintf("log:%d:%s:%d", userID, l.Action, time.Now().UnixNano())

	if err := s.redis.Set(ctx, cacheKey, data, logCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache log: %w", err)
	}
	if err := s.redis.ZAdd(ctx, logQueueKey, &redis.Z{
		Score:  float64(l.CreatedAt.Unix()),
		Member: cacheKey,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to add log to processing queue")
	}
	return nil
}

// FlushResult summarizes a cache flush.
type FlushResult struct {
	Processed int `json:"processed_count"`
	Errors    int `json:"error_count"`
	Total     int `json:"total_keys"`
}

// Flush moves queued entries scored at or before cutoff into the database.
func (s *ActivityLogService) Flush(ctx context.Context, cutoff time.Time) (FlushResult, error) {
	var res FlushResult
	if s == nil || s.redis == nil {
		return res, fmt.Errorf("redis client not available")
	}

	keys, err := s.redis.ZRangeByScore(ctx, logQueueKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return res, fmt.Errorf("failed to get queued logs: %w", err)
	}
	res.Total = len(keys)

	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				// expired from cache; drop the dangling queue member
				s.redis.ZRem(ctx, logQueueKey, key)
			} else {
				logrus.WithError(err).Errorf("Failed to get log data for key: %s", key)
				res.Errors++
			}
			continue
		}

		var activityLog models.ActivityLog
		if err := json.Unmarshal([]byte(data), &activityLog); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal log data for key: %s", key)
			res.Errors++
			continue
		}
		activityLog.ID = 0
		activityLog.User = nil

		if err := s.db.WithContext(ctx).Create(&activityLog).Error; err != nil {
			logrus.WithError(err).Error("Failed to save cached log to database")
			res.Errors++
			continue
		}

		pipe := s.redis.Pipeline()
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, logQueueKey, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove log from cache: %s", key)
		}
		res.Processed++
	}

	logrus.Infof("Flushed %d logs to database, %d errors", res.Processed, res.Errors)
	return res, nil
}

// LogFilter narrows ListLogs. Zero values are ignored.
type LogFilter struct {
	UserID   uint
	Action   string
	Resource string
	From     models.Date
	To       models.Date
	Page     int
	Limit    int
}

// LogPage is one page of audit entries.
type LogPage struct {
	Logs       []models.ActivityLog `json:"logs"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int64                `json:"total_pages"`
}

func (s *ActivityLogService) ListLogs(ctx context.Context, f LogFilter) (*LogPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		query = query.Where("resource = ?", f.Resource)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From.Time)
	}
	if !f.To.IsZero() {
		query = query.Where("created_at < ?", f.To.Time.AddDate(0, 0, 1))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}

	var logs []models.ActivityLog
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	return &LogPage{
		Logs:       logs,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + int64(f.Limit) - 1) / int64(f.Limit),
	}, nil
}

// LogStats summarizes the audit trail.
type LogStats struct {
	Total             int64                 `json:"total"`
	TotalToday        int64                 `json:"total_today"`
	TotalThisWeek     int64                 `json:"total_this_week"`
	TotalThisMonth    int64                 `json:"total_this_month"`
	ActionBreakdown   map[string]int64      `json:"action_breakdown"`
	ResourceBreakdown map[string]int64      `json:"resource_breakdown"`
	TopUsers          []UserActivitySummary `json:"top_users"`
}

type UserActivitySummary struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

// Stats counts entries relative to now. Weeks start on Sunday.
func (s *ActivityLogService) Stats(ctx context.Context, now time.Time) (*LogStats, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisWeek := today.AddDate(0, 0, -int(today.Weekday()))
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	db := s.db.WithContext(ctx)
	stats := &LogStats{
		ActionBreakdown:   map[string]int64{},
		ResourceBreakdown: map[string]int64{},
		TopUsers:          []UserActivitySummary{},
	}

	counts := []struct {
		since time.Time
		dest  *int64
	}{
		{time.Time{}, &stats.Total},
		{today, &stats.TotalToday},
		{thisWeek, &stats.TotalThisWeek},
		{thisMonth, &stats.TotalThisMonth},
	}
	for _, c := range counts {
		q := db.Model(&models.ActivityLog{})
		if !c.since.IsZero() {
			q = q.Where("created_at >= ?", c.since)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count logs: %w", err)
		}
	}

	type bucket struct {
		Label string
		Count int64
	}
	for column, dest := range map[string]map[string]int64{
		"action":   stats.ActionBreakdown,
		"resource": stats.ResourceBreakdown,
	} {
		var buckets []bucket
		if err := db.Model(&models.ActivityLog{}).
			Select(column + " AS label, COUNT(*) AS count").
			Group(column).
			Scan(&buckets).Error; err != nil {
			return nil, fmt.Errorf("group logs by %s: %w", column, err)
		}
		for _, b := range buckets {
			dest[b.Label] = b.Count
		}
	}

	if err := db.Model(&models.ActivityLog{}).
		Select("activity_logs.user_id AS user_id, users.username AS username, COUNT(*) AS count").
		Joins("JOIN users ON users.id = activity_logs.user_id").
		Where("activity_logs.created_at >= ?", thisMonth).
		Group("activity_logs.user_id, users.username").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopUsers).Error; err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	return stats, nil
}
