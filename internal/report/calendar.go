package report

import (
	"net/url"
	"strings"
	"time"
)

const dateStamp = "20060102"

// Event is an all-day calendar entry.
type Event struct {
	UID         string    `json:"uid"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

// JobCalendar carries the job fields that go onto a calendar.
type JobCalendar struct {
	Title          string
	PayerName      string
	Platforms      []string
	ContentType    string
	Notes          string
	ReviewDeadline *time.Time
	PublishDate    *time.Time
}

// JobEvents returns the review deadline and publish events that have dates.
func JobEvents(job JobCalendar) []Event {
	details := jobDetails(job)
	var events []Event
	if job.ReviewDeadline != nil {
		d := job.ReviewDeadline.UTC()
		events = append(events, Event{
			UID:         "review-deadline-" + d.Format(dateStamp) + "-" + job.Title,
			Title:       job.Title + " (Review deadline)",
			Description: details,
			Date:        d,
		})
	}
	if job.PublishDate != nil {
		d := job.PublishDate.UTC()
		events = append(events, Event{
			UID:         "publish-" + d.Format(dateStamp) + "-" + job.Title,
			Title:       job.Title + " (Publish)",
			Description: details,
			Date:        d,
		})
	}
	return events
}

func jobDetails(job JobCalendar) string {
	var lines []string
	if job.PayerName != "" {
		lines = append(lines, "Payer: "+job.PayerName)
	}
	if len(job.Platforms) > 0 {
		lines = append(lines, "Platforms: "+strings.Join(job.Platforms, ", "))
	}
	if job.ContentType != "" {
		lines = append(lines, "Content type: "+job.ContentType)
	}
	if job.Notes != "" {
		lines = append(lines, "Notes: "+job.Notes)
	}
	return strings.Join(lines, "\n")
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// BuildICS renders events as an iCalendar document with CRLF line endings.
// DTEND is exclusive, so each all-day event ends the following day.
func BuildICS(events []Event) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Review Ledger//EN",
		"CALSCALE:GREGORIAN",
	}
	for _, ev := range events {
		uid := ev.UID
		if uid == "" {
			uid = ev.Date.Format(dateStamp) + "-" + ev.Title
		}
		if len(uid) > 200 {
			uid = uid[:200]
		}
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+icsEscaper.Replace(uid),
			"DTSTART;VALUE=DATE:"+ev.Date.Format(dateStamp),
			"DTEND;VALUE=DATE:"+ev.Date.AddDate(0, 0, 1).Format(dateStamp),
			"SUMMARY:"+icsEscaper.Replace(ev.Title),
		)
		if ev.Description != "" {
			lines = append(lines, "DESCRIPTION:"+icsEscaper.Replace(ev.Description))
		}
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// GoogleCalendarURL returns a "create event" link for an all-day event.
func GoogleCalendarURL(ev Event) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("dates", ev.Date.Format(dateStamp)+"/"+ev.Date.AddDate(0, 0, 1).Format(dateStamp))
	q.Set("details", ev.Description)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
