package web

import (
	"bytes"
	"net/http"

	"family-calendar/internal/calendar"
	"family-calendar/internal/ics"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

type taskResponse struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	TaskType    string `json:"task_type"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Missed      bool   `json:"missed"`
	ScheduleID  *uint  `json:"schedule_id"`
}

func toTaskResponse(t model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Date:        t.Day().Format(calendar.DayLayout),
		TaskType:    t.TaskType,
		Description: t.Description,
		Completed:   t.Completed,
		Missed:      t.Missed,
		ScheduleID:  t.ScheduleID,
	}
}

func toTaskResponses(tasks []model.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	from, err := queryDay(r, "start_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := queryDay(r, "end_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tasks, err := s.tasks.ListTasks(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	kind, err := service.ParseStatusKind(req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.ToggleStatus(r.Context(), id, kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (s *Server) handleMarkMissed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.MarkMissed(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (s *Server) handleRescheduleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req struct {
		NewDate string `json:"new_date"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	day, err := calendar.ParseDay("new_date", req.NewDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.Reschedule(r.Context(), id, day)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

type reminderResponse struct {
	TaskID uint   `json:"task_id"`
	Title  string `json:"title"`
	Date   string `json:"date"`
}

func (s *Server) handleReminderCheck(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.Reminders(r.Context(), s.today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, reminderResponse{
			TaskID: rem.TaskID,
			Title:  rem.Title,
			Date:   rem.Date.Format(calendar.DayLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCalendarFeed exports tasks as iCalendar. Without start_date the feed
// starts thirty days back.
func (s *Server) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	from, err := queryDay(r, "start_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := queryDay(r, "end_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if from == nil {
		d := s.today().AddDate(0, 0, -30)
		from = &d
	}

	tasks, err := s.tasks.ListTasks(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := ics.Write(&buf, s.opts.Title, tasks, s.opts.Now()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
