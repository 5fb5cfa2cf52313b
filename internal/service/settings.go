package service

import (
	"github.com/noah-isme/smart-timetable/internal/models"
	"github.com/noah-isme/smart-timetable/pkg/config"
)

// TimingFromConfig converts the configured college day into a grid config.
func TimingFromConfig(t config.TimingConfig) models.TimingConfig {
	return models.TimingConfig{
		DayStart:           t.DayStart,
		DayEnd:             t.DayEnd,
		LunchStart:         t.LunchStart,
		LunchDuration:      t.LunchDuration,
		IncludeShortBreak:  t.IncludeShortBreak,
		ShortBreakDuration: t.ShortBreakDuration,
		PeriodLength:       t.PeriodLength,
		Days:               t.Days,
	}
}

// LimitsFromConfig extracts placement limits from scheduler settings.
func LimitsFromConfig(s config.SchedulerConfig) PlacementLimits {
	return PlacementLimits{
		RetryBudget:    s.RetryBudget,
		BatchDailyCap:  s.BatchDailyCap,
		FacultyMaxDay:  s.FacultyDefaultMaxDay,
		FacultyMaxWeek: s.FacultyDefaultMaxWk,
	}
}
