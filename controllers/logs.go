package controllers

import (
	"strconv"
	"strings"
	"time"

	"schooladmin/services"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
)

type LogController struct {
	activity *services.ActivityLogService
	archive  *services.LogArchiveService
}

func NewLogController(activity *services.ActivityLogService, archive *services.LogArchiveService) *LogController {
	return &LogController{activity: activity, archive: archive}
}

// GetLogs retrieves paginated activity logs with filters
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	f := services.LogFilter{
		Action:   strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Resource: strings.TrimSpace(c.Query("resource")),
		Page:     page,
		Limit:    limit,
	}
	var err error
	if f.UserID, err = queryUint(c, "user_id"); err != nil {
		return err
	}
	if f.From, err = queryDate(c, "start_date"); err != nil {
		return err
	}
	if f.To, err = queryDate(c, "end_date"); err != nil {
		return err
	}

	logs, err := lc.activity.ListLogs(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(logs)
}

// GetLogStats provides logging statistics
func (lc *LogController) GetLogStats(c *fiber.Ctx) error {
	stats, err := lc.activity.Stats(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// FlushCache moves every queued entry from Redis into the database.
func (lc *LogController) FlushCache(c *fiber.Ctx) error {
	res, err := lc.activity.Flush(c.UserContext(), time.Now())
	if err != nil {
		return utils.NewUnavailableError(err.Error())
	}
	return c.JSON(fiber.Map{
		"message": "Cache flush completed",
		"result":  res,
	})
}

func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := lc.archive.ListArchives(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// ArchiveLogs archives entries older than ?days (default 30, minimum 7).
func (lc *LogController) ArchiveLogs(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil {
		return utils.NewValidationError("days must be a number")
	}
	archive, err := lc.archive.ArchiveOldLogs(c.UserContext(), days)
	if err != nil {
		return err
	}
	if archive == nil {
		return c.JSON(fiber.Map{"message": "No logs to archive"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Logs archived successfully",
		"archive": archive,
	})
}
