package models

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleState is the activation state of a schedule.
type ScheduleState string

const (
	ScheduleStateEnabled  ScheduleState = "enabled"
	ScheduleStateDisabled ScheduleState = "disabled"
)

var (
	// ErrInvalidScheduleState is returned for states other than enabled/disabled.
	ErrInvalidScheduleState = errors.New("invalid schedule state")

	// ErrInvalidCronTab is returned when a cron expression cannot be parsed
	// into the simplified schedule model.
	ErrInvalidCronTab = errors.New("invalid cron expression")

	// ErrInvalidWeekday is returned when a weekly schedule lists a day
	// outside 0..6.
	ErrInvalidWeekday = errors.New("weekly schedule days must be between 0 and 6")
)

func (s ScheduleState) Validate() error {
	switch s {
	case ScheduleStateEnabled, ScheduleStateDisabled:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScheduleState, string(s))
	}
}

// ScheduleType classifies the recurrence shape of a simplified schedule.
type ScheduleType string

const (
	ScheduleTypeYearly  ScheduleType = "yearly"
	ScheduleTypeMonthly ScheduleType = "monthly"
	ScheduleTypeWeekly  ScheduleType = "weekly"
	ScheduleTypeDaily   ScheduleType = "daily"
	ScheduleTypeHourly  ScheduleType = "hourly"
)

// SimplifiedCronSchedule is a structured, human-editable representation of a
// five-field cron expression. Empty slices mean "every" (the cron wildcard).
type SimplifiedCronSchedule struct {
	Type      ScheduleType `json:"type"`
	Timezone  string       `json:"timezone"`
	InMonths  []int        `json:"inMonths"`
	OnDays    []int        `json:"onDays"`
	AtHour    []int        `json:"atHour"`
	AtMinutes []int        `json:"atMinutes"`
}

// ParseCronTab builds a simplified schedule from a five-field cron expression
// (minute hour day-of-month month day-of-week). Fields must be either the
// wildcard "*" or a comma-separated list of integers; ranges and step values
// are not representable in the simplified model.
//
// Shape classification follows field cardinality, first match wins:
// yearly, monthly, weekly, daily, hourly. An expression matching none of the
// shapes falls back to yearly with a logged warning rather than failing,
// because this path processes cron strings authored outside this system.
func ParseCronTab(cronTab string) (*SimplifiedCronSchedule, error) {
	fields := strings.Fields(cronTab)
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d in %q", ErrInvalidCronTab, len(fields), cronTab)
	}

	parsed := make([][]int, 5)

	names := []string{"minute", "hour", "day-of-month", "month", "day-of-week"}
	for i, field := range fields {
		values, err := parseCronField(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %s field %q: %v", ErrInvalidCronTab, names[i], field, err)
		}

		parsed[i] = values
	}

	minutes, hours, days, months, weekdays := parsed[0], parsed[1], parsed[2], parsed[3], parsed[4]

	var scheduleType ScheduleType

	switch {
	case len(minutes) > 0 && len(hours) > 0 && len(days) > 0 && len(months) > 0:
		scheduleType = ScheduleTypeYearly
	case len(minutes) > 0 && len(hours) > 0 && len(days) > 0:
		scheduleType = ScheduleTypeMonthly
	case len(minutes) > 0 && len(hours) > 0 && len(weekdays) > 0:
		scheduleType = ScheduleTypeWeekly
	case len(minutes) > 0 && len(hours) > 0:
		scheduleType = ScheduleTypeDaily
	case len(minutes) > 0:
		scheduleType = ScheduleTypeHourly
	default:
		slog.Warn("could not classify cron expression, assuming yearly", "cron_tab", cronTab)

		scheduleType = ScheduleTypeYearly
	}

	onDays := days
	if len(onDays) == 0 {
		onDays = weekdays
	}

	return &SimplifiedCronSchedule{
		Type:      scheduleType,
		Timezone:  "UTC",
		InMonths:  months,
		OnDays:    onDays,
		AtHour:    hours,
		AtMinutes: minutes,
	}, nil
}

func parseCronField(field string) ([]int, error) {
	if field == "*" {
		return nil, nil
	}

	parts := strings.Split(field, ",")
	values := make([]int, 0, len(parts))

	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", part)
		}

		values = append(values, v)
	}

	return values, nil
}

// CronTab renders the schedule back to a five-field cron expression. Weekly
// schedules carry OnDays in the day-of-week field and force day-of-month to
// the wildcard; all other shapes do the opposite.
func (s *SimplifiedCronSchedule) CronTab() (string, error) {
	if s.Type == ScheduleTypeWeekly {
		for _, day := range s.OnDays {
			if day < 0 || day > 6 {
				return "", fmt.Errorf("%w: got %d", ErrInvalidWeekday, day)
			}
		}

		return fmt.Sprintf("%s %s * * %s",
			cronList(s.AtMinutes), cronList(s.AtHour), cronList(s.OnDays)), nil
	}

	return fmt.Sprintf("%s %s %s %s *",
		cronList(s.AtMinutes), cronList(s.AtHour), cronList(s.OnDays), cronList(s.InMonths)), nil
}

func cronList(values []int) string {
	if len(values) == 0 {
		return "*"
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}

// ValidateCronTab checks a cron expression against the standard five-field
// grammar. This guards expressions before they are handed to the scheduler
// service, which rejects malformed configurations only at activation time.
func ValidateCronTab(cronTab string) error {
	if strings.TrimSpace(cronTab) == "" {
		return fmt.Errorf("%w: expression is empty", ErrInvalidCronTab)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cronTab); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCronTab, err)
	}

	return nil
}

// ScheduleExecution is one recent run triggered by a schedule. Both fields
// are nullable because the scheduler service may omit them.
type ScheduleExecution struct {
	JobID         *string    `json:"jobId,omitempty"`
	ExecutionTime *time.Time `json:"executionTime,omitempty"`
}

// ScheduleDetail pairs a scheduler-service activation record with its
// simplified schedule and recent executions.
type ScheduleDetail struct {
	ID              string                  `json:"id"`
	ConfigurationID string                  `json:"configurationId"`
	Name            string                  `json:"name,omitempty"`
	CronTab         string                  `json:"cronTab"`
	Timezone        string                  `json:"timezone"`
	State           ScheduleState           `json:"state"`
	Schedule        *SimplifiedCronSchedule `json:"schedule,omitempty"`
	Executions      []ScheduleExecution     `json:"executions"`
}
