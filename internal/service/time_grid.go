package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

const (
	defaultPeriodLength       = 45
	defaultShortBreakDuration = 10
	defaultScheduleDays       = 6
	shortBreakOffset          = 90
)

// DefaultTimingConfig mirrors the standard 09:00-16:30 college day.
func DefaultTimingConfig() models.TimingConfig {
	return models.TimingConfig{
		DayStart:           "09:00",
		DayEnd:             "16:30",
		LunchStart:         "12:15",
		LunchDuration:      60,
		ShortBreakDuration: defaultShortBreakDuration,
		PeriodLength:       defaultPeriodLength,
		Days:               defaultScheduleDays,
	}
}

type gridSlot struct {
	label   string
	start   int
	end     int
	session int
}

type breakWindow struct {
	label string
	start int
	end   int
}

// TimeGrid is the immutable ordered set of teaching periods for one timing
// configuration. Periods are "HH:MM-HH:MM" labels; break windows are excised.
type TimeGrid struct {
	config    models.TimingConfig
	slots     []gridSlot
	index     map[string]int
	labStarts []int
	breaks    map[int]string
}

// BuildTimeGrid walks the day in fixed-length periods, skipping lunch and the
// optional short break. A configuration that leaves no usable period fails.
func BuildTimeGrid(cfg models.TimingConfig) (*TimeGrid, error) {
	cfg = normalizeTiming(cfg)

	dayStart, err := parseClock(cfg.DayStart)
	if err != nil {
		return nil, configurationError("college start time %q: %v", cfg.DayStart, err)
	}
	dayEnd, err := parseClock(cfg.DayEnd)
	if err != nil {
		return nil, configurationError("college end time %q: %v", cfg.DayEnd, err)
	}
	if dayEnd <= dayStart {
		return nil, configurationError("college end time %s must be after start time %s", cfg.DayEnd, cfg.DayStart)
	}
	if cfg.PeriodLength <= 0 {
		return nil, configurationError("period length must be positive, got %d", cfg.PeriodLength)
	}
	if cfg.LunchDuration < 0 || cfg.ShortBreakDuration < 0 {
		return nil, configurationError("break durations must not be negative")
	}

	var breaks []breakWindow
	lunchEnd := dayEnd
	if cfg.LunchStart != "" && cfg.LunchDuration > 0 {
		lunchStart, err := parseClock(cfg.LunchStart)
		if err != nil {
			return nil, configurationError("lunch start time %q: %v", cfg.LunchStart, err)
		}
		if lunchStart < dayStart || lunchStart >= dayEnd {
			return nil, configurationError("lunch start %s outside college day %s-%s", cfg.LunchStart, cfg.DayStart, cfg.DayEnd)
		}
		lunchEnd = lunchStart + cfg.LunchDuration
		breaks = append(breaks, breakWindow{label: "lunch", start: lunchStart, end: lunchEnd})
	}
	if cfg.IncludeShortBreak && cfg.ShortBreakDuration > 0 {
		shortStart := dayStart + shortBreakOffset
		breaks = append(breaks, breakWindow{label: "break", start: shortStart, end: shortStart + cfg.ShortBreakDuration})
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].start < breaks[j].start })

	grid := &TimeGrid{config: cfg, index: make(map[string]int), breaks: make(map[int]string)}
	cursor := dayStart
	pendingBreak := ""
	for cursor < dayEnd {
		periodEnd := cursor + cfg.PeriodLength
		if b, skip := skipBreak(cursor, periodEnd, breaks); skip {
			cursor = b.end
			pendingBreak = b.label
			continue
		}
		if periodEnd > dayEnd {
			break
		}
		session := 0
		if len(breaks) > 0 && cfg.LunchDuration > 0 && cursor >= lunchEnd {
			session = 1
		}
		label := fmt.Sprintf("%s-%s", formatClock(cursor), formatClock(periodEnd))
		if pendingBreak != "" && len(grid.slots) > 0 {
			grid.breaks[len(grid.slots)] = pendingBreak
		}
		pendingBreak = ""
		grid.index[label] = len(grid.slots)
		grid.slots = append(grid.slots, gridSlot{label: label, start: cursor, end: periodEnd, session: session})
		cursor = periodEnd
	}

	if len(grid.slots) == 0 {
		return nil, configurationError("no usable periods between %s and %s after breaks", cfg.DayStart, cfg.DayEnd)
	}

	grid.labStarts = []int{0}
	for i, slot := range grid.slots {
		if slot.session == 1 {
			if i != 0 {
				grid.labStarts = append(grid.labStarts, i)
			}
			break
		}
	}
	return grid, nil
}

// skipBreak returns the break a period starting at start would overlap.
func skipBreak(start, end int, breaks []breakWindow) (breakWindow, bool) {
	for _, b := range breaks {
		overlapsStart := start < b.start && end > b.start
		inside := start >= b.start && start < b.end
		if overlapsStart || inside {
			return b, true
		}
	}
	return breakWindow{}, false
}

// Config returns the normalised timing configuration the grid was built from.
func (g *TimeGrid) Config() models.TimingConfig { return g.config }

// Days returns the number of teaching days per week.
func (g *TimeGrid) Days() int { return g.config.Days }

// Len returns the number of periods per day.
func (g *TimeGrid) Len() int { return len(g.slots) }

// SlotUniverse is days × periods, the denominator for utilisation.
func (g *TimeGrid) SlotUniverse() int { return g.Days() * g.Len() }

// Slots returns the period labels in order.
func (g *TimeGrid) Slots() []string {
	out := make([]string, len(g.slots))
	for i, slot := range g.slots {
		out[i] = slot.label
	}
	return out
}

// Contains reports whether label is a period of this grid.
func (g *TimeGrid) Contains(label string) bool {
	_, ok := g.index[label]
	return ok
}

// LabStarts returns the permitted lab anchors: the first period of the day and
// the first period after lunch.
func (g *TimeGrid) LabStarts() []string {
	out := make([]string, 0, len(g.labStarts))
	for _, idx := range g.labStarts {
		out = append(out, g.slots[idx].label)
	}
	return out
}

// Breaks maps a period index to the break ("lunch" or "break") that
// immediately precedes it.
func (g *TimeGrid) Breaks() map[int]string {
	out := make(map[int]string, len(g.breaks))
	for k, v := range g.breaks {
		out[k] = v
	}
	return out
}

// Run returns size consecutive periods beginning at start. A run never crosses
// the lunch break.
func (g *TimeGrid) Run(start string, size int) ([]string, bool) {
	idx, ok := g.index[start]
	if !ok || size <= 0 || idx+size > len(g.slots) {
		return nil, false
	}
	session := g.slots[idx].session
	run := make([]string, 0, size)
	for i := idx; i < idx+size; i++ {
		if g.slots[i].session != session {
			return nil, false
		}
		run = append(run, g.slots[i].label)
	}
	return run, true
}

func normalizeTiming(cfg models.TimingConfig) models.TimingConfig {
	def := DefaultTimingConfig()
	if cfg.DayStart == "" {
		cfg.DayStart = def.DayStart
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = def.DayEnd
	}
	if cfg.PeriodLength == 0 {
		cfg.PeriodLength = def.PeriodLength
	}
	if cfg.ShortBreakDuration == 0 {
		cfg.ShortBreakDuration = def.ShortBreakDuration
	}
	if cfg.Days <= 0 || cfg.Days > len(models.DayNames) {
		cfg.Days = def.Days
	}
	return cfg
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func configurationError(format string, args ...any) error {
	return appErrors.Clonef(appErrors.ErrConfiguration, "invalid timing configuration: "+format, args...)
}
