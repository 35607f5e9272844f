package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// Milestone is one employee event worth celebrating today.
type Milestone struct {
	Employee Employee
	Kind     string // "birthday" or "anniversary"
	Years    int    // service years, anniversaries only
}

func (m Milestone) describe() string {
	name := m.Employee.Attr("Name")
	if name == "" {
		name = m.Employee.ID
	}
	if m.Kind == "anniversary" {
		return fmt.Sprintf("%d-year work anniversary for %s (%s, %s)",
			m.Years, name, m.Employee.Attr("Position"), m.Employee.Attr("Department"))
	}
	return fmt.Sprintf("birthday of %s (%s, %s)",
		name, m.Employee.Attr("Position"), m.Employee.Attr("Department"))
}

var attrDateLayouts = []string{"2006-01-02", "02-01-2006", "01/02/2006", "2 January 2006", "January 2, 2006"}

func parseAttrDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range attrDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// milestonesOn returns the birthdays and joining anniversaries that fall on
// the given day. First-day employees (zero completed years) are skipped.
func milestonesOn(day time.Time, employees []Employee) []Milestone {
	var out []Milestone
	for _, e := range employees {
		if dob, ok := parseAttrDate(e.Attr("Date_of_Birth")); ok {
			if dob.Month() == day.Month() && dob.Day() == day.Day() {
				out = append(out, Milestone{Employee: e, Kind: "birthday"})
			}
		}
		if doj, ok := parseAttrDate(e.Attr("Date_of_Joining")); ok {
			years := day.Year() - doj.Year()
			if years > 0 && doj.Month() == day.Month() && doj.Day() == day.Day() {
				out = append(out, Milestone{Employee: e, Kind: "anniversary", Years: years})
			}
		}
	}
	return out
}

// StartCelebrationScheduler posts celebration messages for today's employee
// milestones to the configured channel on a cron schedule.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func StartCelebrationScheduler(cfg Config, repo *EmployeeRepository, agent Agent, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.CelebrationSchedule)
	if schedule == "" {
		log.Println("Celebration scheduler disabled (celebration_schedule not set)")
		return
	}
	if cfg.CelebrationChannelID == "" {
		log.Println("Celebration scheduler disabled: celebration_channel_id not set")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid celebration_schedule '%s': %v — celebration scheduler disabled", schedule, err)
		return
	}

	log.Printf("Celebration scheduler started (cron: %s) channel=%s", schedule, cfg.CelebrationChannelID)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next celebration check at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if err := runCelebrationCheck(cfg, repo, agent, api); err != nil {
				log.Printf("Celebration check error: %v", err)
			}
		}
	}()
}

func runCelebrationCheck(cfg Config, repo *EmployeeRepository, agent Agent, api *slack.Client) error {
	ctx := context.Background()
	today := time.Now()

	var employees []Employee
	token := ""
	for {
		page, next, err := repo.Query(ctx, nil, 100, token)
		if err != nil {
			return fmt.Errorf("loading employees: %w", err)
		}
		employees = append(employees, page...)
		if next == "" {
			break
		}
		token = next
	}

	milestones := milestonesOn(today, employees)
	if len(milestones) == 0 {
		log.Printf("Celebration check: no milestones today (%s)", today.Format("Jan 2"))
		return nil
	}
	log.Printf("Celebration check: %d milestone(s) today", len(milestones))

	for _, m := range milestones {
		request := fmt.Sprintf("Create a celebration post for the %s today.", m.describe())
		post, err := agent.Respond(ctx, request, cfg.CelebrationChannelID)
		if err != nil {
			log.Printf("Celebration post generation error employee=%s: %v", m.Employee.ID, err)
			continue
		}
		_, _, err = api.PostMessage(cfg.CelebrationChannelID, slack.MsgOptionText(post, false))
		if err != nil {
			log.Printf("Celebration post error employee=%s: %v", m.Employee.ID, err)
			continue
		}
		log.Printf("Celebration posted kind=%s employee=%s", m.Kind, m.Employee.ID)
	}
	return nil
}
