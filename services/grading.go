package services

import (
	"schooladmin/models"
	"schooladmin/utils"
)

type gradeBand struct {
	min   float64
	grade string
}

// Lower bounds are inclusive.
var gradeBands = []gradeBand{
	{80, "A"},
	{70, "B"},
	{60, "C"},
	{50, "D"},
}

// Grade converts marks to a letter grade.
func Grade(marks float64) string {
	for _, b := range gradeBands {
		if marks >= b.min {
			return b.grade
		}
	}
	return "F"
}

// AttendanceRate is present/total as a percentage rounded to two places; 0 when total is 0.
func AttendanceRate(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return utils.Round2(float64(present) / float64(total) * 100)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd models.Clock) bool {
	return aStart < bEnd && aEnd > bStart
}
