// Package icsfeed выгружает календарь встреч в формате iCalendar.
package icsfeed

import (
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

const productID = "-//Guidance and Counseling Office//Counseling Scheduler//EN"

// Options это параметры выгрузки
type Options struct {
	Name   string    // X-WR-CALNAME
	Office string    // место для очных встреч
	Now    time.Time // DTSTAMP
}

// Build собирает VCALENDAR из встреч. UID события совпадает с ID заявки.
func Build(sessions []model.Session, opts Options) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	stamp := opts.Now.UTC()
	for _, s := range sessions {
		ev := cal.AddEvent(s.SessionID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(s.StartsAt)
		ev.SetEndAt(s.EndsAt)
		ev.SetSummary(summary(s))
		ev.SetDescription(description(s))
		ev.SetStatus(ical.ObjectStatusConfirmed)

		switch s.Mode {
		case model.ModeInPerson:
			if opts.Office != "" {
				ev.SetLocation(opts.Office)
			}
		default:
			if s.MeetingLink != "" {
				ev.SetLocation(s.MeetingLink)
				ev.SetURL(s.MeetingLink)
			} else {
				ev.SetLocation("Online")
			}
		}
	}

	return cal.Serialize()
}

func summary(s model.Session) string {
	who := s.Student.Name
	if who == "" {
		who = s.Student.ID
	}
	return "Counseling: " + who
}

func description(s model.Session) string {
	var b strings.Builder
	if s.Reason != "" {
		b.WriteString("Reason: " + s.Reason + "\n")
	}
	if s.Notes != "" {
		b.WriteString("Notes: " + s.Notes + "\n")
	}
	if s.Student.Number != "" {
		b.WriteString("Student number: " + s.Student.Number + "\n")
	}
	b.WriteString("Status: " + string(s.Status) + "\n")
	b.WriteString("Duration: " + strconv.Itoa(int(s.End-s.Start)) + " min")
	return b.String()
}
