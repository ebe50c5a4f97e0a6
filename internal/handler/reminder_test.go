package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carenote/carenote/internal/handler/dto"
)

func createReminder(t *testing.T, env *apiEnv, user, body string) dto.ReminderResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/reminders", user, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return *decode[dto.ReminderEnvelope](t, rec).Reminder
}

func TestReminderHandler_Create(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		user       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		"created": {
			user:       "pat",
			body:       `{"title":"Blood pressure pill","remindAt":"2024-03-02T08:00","repeat":"daily","timezone":"Europe/Berlin"}`,
			wantStatus: http.StatusCreated,
		},
		"validation": {
			user:       "pat",
			body:       `{"title":"  ","remindAt":"2024-02-01T08:00:00Z","repeat":"hourly"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
			wantFields: []string{"title", "remindAt", "repeat"},
		},
		"invalid json": {
			user:       "pat",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_JSON",
		},
		"anonymous": {
			body:       `{"title":"x","remindAt":"2024-03-02T08:00:00Z"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := newAPIEnv(t)
			rec := env.do(t, http.MethodPost, "/api/reminders", tc.user, tc.body, nil)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			if tc.wantCode == "" {
				got := decode[dto.ReminderEnvelope](t, rec).Reminder
				require.NotEmpty(t, got.ID)
				require.Equal(t, "pending", got.Status)
				require.Equal(t, "daily", got.Repeat)
				require.Equal(t, "Europe/Berlin", got.Timezone)
				require.True(t, got.RemindAt.Equal(time.Date(2024, time.March, 2, 7, 0, 0, 0, time.UTC)))
				return
			}

			body := decode[dto.ErrorResponse](t, rec)
			require.Equal(t, tc.wantCode, body.Code)
			for _, f := range tc.wantFields {
				require.Contains(t, body.Fields, f)
			}
		})
	}
}

func TestReminderHandler_ListDashboard(t *testing.T) {
	t.Parallel()

	env := newAPIEnv(t)
	a := createReminder(t, env, "pat", `{"title":"A","remindAt":"2024-03-01T10:00:00Z","repeat":"daily"}`)
	b := createReminder(t, env, "pat", `{"title":"B","remindAt":"2024-03-01T11:00:00Z"}`)
	c := createReminder(t, env, "pat", `{"title":"C","remindAt":"2024-03-05T09:00:00Z"}`)
	d := createReminder(t, env, "pat", `{"title":"D","remindAt":"2024-03-06T09:00:00Z"}`)
	createReminder(t, env, "sam", `{"title":"Other","remindAt":"2024-03-01T10:00:00Z"}`)

	for _, id := range []string{b.ID, d.ID} {
		rec := env.do(t, http.MethodPost, "/api/reminders/"+id+"/done", "pat", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	env.clock.Set(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))

	rec := env.do(t, http.MethodGet, "/api/reminders", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ReminderListResponse](t, rec)

	require.Len(t, list.Reminders, 4)
	require.Len(t, list.Active, 2)
	require.Equal(t, a.ID, list.Active[0].ID)
	require.Equal(t, "overdue", list.Active[0].Status)
	require.Equal(t, c.ID, list.Active[1].ID)
	require.Equal(t, "pending", list.Active[1].Status)
	require.Len(t, list.Completed, 2)
	require.Equal(t, 2, list.Summary.Active)
	require.Equal(t, 1, list.Summary.Overdue)
	require.Equal(t, 2, list.Summary.Completed)
	require.True(t, list.Now.Equal(env.clock.Now()))

	rec = env.do(t, http.MethodGet, "/api/reminders?completed_limit=1", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limited := decode[dto.ReminderListResponse](t, rec)
	require.Len(t, limited.Completed, 1)
	require.Equal(t, 2, limited.Summary.Completed)
}

func TestReminderHandler_GetHidesOtherOwners(t *testing.T) {
	t.Parallel()

	env := newAPIEnv(t)
	r := createReminder(t, env, "pat", `{"title":"Mine","remindAt":"2024-03-02T08:00:00Z"}`)

	rec := env.do(t, http.MethodGet, "/api/reminders/"+r.ID, "sam", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "REMINDER_NOT_FOUND", decode[dto.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/reminders/"+r.ID, "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Mine", decode[dto.ReminderEnvelope](t, rec).Reminder.Title)
}

func TestReminderHandler_MarkDone(t *testing.T) {
	t.Parallel()

	env := newAPIEnv(t)
	oneOff := createReminder(t, env, "pat", `{"title":"Dentist","remindAt":"2024-03-02T08:00:00Z"}`)
	weekly := createReminder(t, env, "pat", `{"title":"Organizer","remindAt":"2024-03-04T08:00:00Z","repeat":"weekly"}`)

	rec := env.do(t, http.MethodPost, "/api/reminders/"+oneOff.ID+"/done", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[dto.MarkDoneResponse](t, rec)
	require.Equal(t, "finalized", first.Outcome)
	require.True(t, first.Reminder.Done)
	require.Equal(t, "done", first.Reminder.Status)

	rec = env.do(t, http.MethodPost, "/api/reminders/"+oneOff.ID+"/done", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[dto.MarkDoneResponse](t, rec)
	require.Equal(t, "noop", again.Outcome)
	require.Equal(t, first.Reminder.Version, again.Reminder.Version)

	env.clock.Set(time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC))
	rec = env.do(t, http.MethodPost, "/api/reminders/"+weekly.ID+"/done", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	advanced := decode[dto.MarkDoneResponse](t, rec)
	require.Equal(t, "advanced", advanced.Outcome)
	require.False(t, advanced.Reminder.Done)
	require.True(t, advanced.Reminder.RemindAt.Equal(time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)))

	rec = env.do(t, http.MethodPost, "/api/reminders/missing/done", "pat", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/reminders/"+weekly.ID+"/completions", "pat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[dto.CompletionListResponse](t, rec)
	require.Len(t, history.Completions, 1)
	require.True(t, history.Completions[0].ScheduledFor.Equal(weekly.RemindAt))
}

func TestReminderHandler_MarkDoneIdempotencyKey(t *testing.T) {
	t.Parallel()

	env := newAPIEnv(t)
	r := createReminder(t, env, "pat", `{"title":"Vitamins","remindAt":"2024-03-02T08:00:00Z","repeat":"daily"}`)
	headers := map[string]string{IdempotencyKeyHeader: "tap-1"}

	rec := env.do(t, http.MethodPost, "/api/reminders/"+r.ID+"/done", "pat", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	first := decode[dto.MarkDoneResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/reminders/"+r.ID+"/done", "pat", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	replay := decode[dto.MarkDoneResponse](t, rec)

	require.Equal(t, first.Outcome, replay.Outcome)
	require.Equal(t, first.Reminder.Version, replay.Reminder.Version)
	require.True(t, first.Reminder.RemindAt.Equal(replay.Reminder.RemindAt))

	rec = env.do(t, http.MethodGet, "/api/reminders/"+r.ID, "pat", "", nil)
	require.Equal(t, int64(2), decode[dto.ReminderEnvelope](t, rec).Reminder.Version)

	long := map[string]string{IdempotencyKeyHeader: strings.Repeat("k", 200)}
	rec = env.do(t, http.MethodPost, "/api/reminders/"+r.ID+"/done", "pat", "", long)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_IDEMPOTENCY_KEY", decode[dto.ErrorResponse](t, rec).Code)
}
