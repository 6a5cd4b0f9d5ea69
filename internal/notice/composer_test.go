package notice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(day int, h int, mode model.SessionMode) *model.CounselingRequest {
	return &model.CounselingRequest{
		ID:              "r1",
		Kind:            model.KindSessionRequest,
		ScheduledDate:   model.Date{Year: 2026, Month: time.February, Day: day},
		ScheduledTime:   model.NewClockTime(h, 0),
		DurationMinutes: 60,
		Mode:            mode,
	}
}

func TestComposer_ResolveOffice(t *testing.T) {
	c := NewComposer(DefaultOffices())
	offices := DefaultOffices()

	t.Run("counselor campus wins", func(t *testing.T) {
		office := c.ResolveOffice(&model.Counselor{Campus: "North"}, &model.Student{Campus: "main"})
		assert.Equal(t, offices.Campuses["north"], office)
	})

	t.Run("falls back to student campus", func(t *testing.T) {
		office := c.ResolveOffice(&model.Counselor{Campus: "unknown"}, &model.Student{Campus: " Main "})
		assert.Equal(t, offices.Campuses["main"], office)
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultOffice, c.ResolveOffice(nil, nil))
		assert.Equal(t, DefaultOffice, c.ResolveOffice(&model.Counselor{}, &model.Student{Campus: "mars"}))
	})
}

func TestComposer_BuildRescheduleNotice(t *testing.T) {
	c := NewComposer(DefaultOffices())
	original := request(10, 9, model.ModeOnline)
	updated := request(12, 14, model.ModeInPerson)
	counselor := &model.Counselor{ID: "c1", Name: "Dr. Reyes", Campus: "north"}
	student := &model.Student{ID: "s1", Name: "Ana Cruz", Email: "ana@example.edu", TelegramID: 777, Campus: "main"}

	notice := c.BuildRescheduleNotice(original, updated, counselor, student)

	assert.Equal(t, "ana@example.edu", notice.To)
	assert.Equal(t, int64(777), notice.ChatID)
	assert.Equal(t, "Counseling session rescheduled to Thu, Feb 12 2026 at 14:00", notice.Subject)

	body := notice.Body
	assert.True(t, strings.HasPrefix(body, "Hello Ana Cruz,"))

	newIdx := strings.Index(body, "New schedule:")
	prevIdx := strings.Index(body, "Previous schedule:")
	replyIdx := strings.Index(body, "please reply")
	require.NotEqual(t, -1, newIdx)
	require.NotEqual(t, -1, prevIdx)
	require.NotEqual(t, -1, replyIdx)
	assert.Less(t, newIdx, prevIdx, "new schedule comes first")
	assert.Less(t, prevIdx, replyIdx, "reply invitation closes the notice")

	newPart := body[newIdx:prevIdx]
	assert.Contains(t, newPart, "Date: Thursday, February 12, 2026")
	assert.Contains(t, newPart, "Time: 14:00 - 15:00")
	assert.Contains(t, newPart, "Mode: In person")
	assert.Contains(t, newPart, "Location: Counseling Center, North Campus")

	prevPart := body[prevIdx:replyIdx]
	assert.Contains(t, prevPart, "Date: Tuesday, February 10, 2026")
	assert.Contains(t, prevPart, "Time: 09:00 - 10:00")
	assert.Contains(t, prevPart, "Mode: Online")
	assert.NotContains(t, prevPart, "Location:")
}

func TestComposer_Deterministic(t *testing.T) {
	c := NewComposer(DefaultOffices())
	original := request(10, 9, model.ModeInPerson)
	updated := request(11, 10, model.ModeOnline)

	first := c.BuildRescheduleNotice(original, updated, nil, nil)
	second := c.BuildRescheduleNotice(original, updated, nil, nil)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Body, "Hello student,")
	assert.Contains(t, first.Body, "Meeting link: will be sent once the session is confirmed")
	assert.Contains(t, first.Body, "Location: "+DefaultOffice)
	assert.Empty(t, first.To)
}

func TestLoadOffices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.yaml")
	content := "default: Front Desk\ncampuses:\n  East: East Wing, Room 3\n  main: Main Hall\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	offices, err := LoadOffices(path)
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", offices.Default)

	office, ok := offices.Lookup("east")
	assert.True(t, ok)
	assert.Equal(t, "East Wing, Room 3", office)

	office, ok = offices.Lookup("MAIN")
	assert.True(t, ok)
	assert.Equal(t, "Main Hall", office)

	_, ok = offices.Lookup("north")
	assert.True(t, ok, "built-in campuses are kept")
}

func TestLoadOffices_Errors(t *testing.T) {
	_, err := LoadOffices(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	offices, err := LoadOffices("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOffice, offices.Default)
}
