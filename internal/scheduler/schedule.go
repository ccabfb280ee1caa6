package scheduler

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry binds a job name to a cron expression.
type Entry struct {
	Job      string `yaml:"job"`
	Schedule string `yaml:"schedule"`
}

// Schedule is the set of periodic jobs, as read from a schedule file.
type Schedule struct {
	Jobs []Entry `yaml:"jobs"`
}

// DefaultSchedule returns the built-in maintenance timetable.
func DefaultSchedule() Schedule {
	return Schedule{Jobs: []Entry{
		{Job: "log_crm_heartbeat", Schedule: "*/5 * * * *"},
		{Job: "generate_crm_report", Schedule: "0 6 * * 1"},
		{Job: "daily_health_check", Schedule: "0 7 * * *"},
		{Job: "send_order_reminders", Schedule: "0 8 * * *"},
		{Job: "cleanup_inactive_customers", Schedule: "0 2 * * 0"},
	}}
}

// Load reads a YAML schedule from path. An empty path yields DefaultSchedule.
func Load(path string) (Schedule, error) {
	if path == "" {
		return DefaultSchedule(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read schedule file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML schedule document.
func Parse(data []byte) (Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schedule{}, fmt.Errorf("parse schedule: %w", err)
	}
	if len(s.Jobs) == 0 {
		return Schedule{}, errors.New("parse schedule: no jobs defined")
	}
	for i, e := range s.Jobs {
		if e.Job == "" || e.Schedule == "" {
			return Schedule{}, fmt.Errorf("parse schedule: entry %d needs both job and schedule", i+1)
		}
	}
	return s, nil
}
