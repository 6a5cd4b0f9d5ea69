// Package notice собирает тексты уведомлений для студентов.
// Сборка детерминирована: без сети, случайности и текущего времени.
package notice

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// Composer собирает уведомления о переносе консультаций
type Composer struct {
	offices Offices
}

// NewComposer создаёт сборщик с таблицей кабинетов
func NewComposer(offices Offices) *Composer {
	if offices.Default == "" {
		offices.Default = DefaultOffice
	}
	return &Composer{offices: offices.normalized()}
}

// ResolveOffice выбирает кабинет: кампус консультанта, затем кампус студента, затем по умолчанию
func (c *Composer) ResolveOffice(counselor *model.Counselor, student *model.Student) string {
	if counselor != nil {
		if office, ok := c.offices.Lookup(counselor.Campus); ok {
			return office
		}
	}
	if student != nil {
		if office, ok := c.offices.Lookup(student.Campus); ok {
			return office
		}
	}
	return c.offices.Default
}

// BuildRescheduleNotice собирает письмо о переносе: сначала новое время, затем прежнее
func (c *Composer) BuildRescheduleNotice(
	original, updated *model.CounselingRequest,
	counselor *model.Counselor,
	student *model.Student,
) model.Notice {
	office := c.ResolveOffice(counselor, student)

	subject := fmt.Sprintf("Counseling session rescheduled to %s at %s",
		formatShortDate(updated.ScheduledDate), updated.ScheduledTime)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", studentName(student))
	b.WriteString("Your counseling session has been rescheduled.\n\n")

	b.WriteString("New schedule:\n")
	writeSchedule(&b, updated, office)
	if updated.Mode == model.ModeOnline {
		b.WriteString("  Meeting link: will be sent once the session is confirmed\n")
	}
	b.WriteString("\n")

	b.WriteString("Previous schedule:\n")
	writeSchedule(&b, original, office)
	b.WriteString("\n")

	if counselor != nil && counselor.Name != "" {
		fmt.Fprintf(&b, "Counselor: %s\n\n", counselor.Name)
	}

	b.WriteString("If the new schedule does not work for you, please reply to this message and we will arrange another time.\n\n")
	b.WriteString("Guidance and Counseling Office")

	notice := model.Notice{
		Subject: subject,
		Body:    b.String(),
	}
	if student != nil {
		notice.To = student.Email
		notice.ChatID = student.TelegramID
	}
	return notice
}

func writeSchedule(b *strings.Builder, req *model.CounselingRequest, office string) {
	fmt.Fprintf(b, "  Date: %s\n", formatLongDate(req.ScheduledDate))
	fmt.Fprintf(b, "  Time: %s - %s\n", req.ScheduledTime, req.ScheduledTime.Add(durationOf(req)))
	if req.Mode == model.ModeInPerson {
		b.WriteString("  Mode: In person\n")
		fmt.Fprintf(b, "  Location: %s\n", office)
		return
	}
	b.WriteString("  Mode: Online\n")
}

func durationOf(req *model.CounselingRequest) int {
	if req.DurationMinutes > 0 {
		return req.DurationMinutes
	}
	return model.StandardDurationMinutes
}

func studentName(student *model.Student) string {
	if student == nil || strings.TrimSpace(student.Name) == "" {
		return "student"
	}
	return student.Name
}

func formatLongDate(d model.Date) string {
	return d.Time().Format("Monday, January 2, 2006")
}

func formatShortDate(d model.Date) string {
	return d.Time().Format("Mon, Jan 2 2006")
}
