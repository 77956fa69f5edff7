package web

import (
	"encoding/json"
	"net/http"
	"time"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

// optionalDate tells an absent key apart from an explicit null.
type optionalDate struct {
	set bool
	raw *string
}

func (d *optionalDate) UnmarshalJSON(data []byte) error {
	d.set = true
	if string(data) == "null" {
		d.raw = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Invalid("date", "dates must be YYYY-MM-DD strings or null")
	}
	d.raw = &s
	return nil
}

func (d optionalDate) input(field string) (service.DateInput, error) {
	if !d.set {
		return service.DateInput{}, nil
	}
	if d.raw == nil || *d.raw == "" {
		return service.DateInput{Set: true}, nil
	}
	day, err := calendar.ParseDay(field, *d.raw)
	if err != nil {
		return service.DateInput{}, err
	}
	return service.DateInput{Set: true, Date: &day}, nil
}

type scheduleRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Weekdays    []int        `json:"weekdays"`
	Active      *bool        `json:"active"`
	StartDate   optionalDate `json:"start_date"`
	EndDate     optionalDate `json:"end_date"`
}

func (req scheduleRequest) input() (service.ScheduleInput, error) {
	input := service.ScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		Weekdays:    req.Weekdays,
		Active:      req.Active,
	}
	var err error
	if input.StartDate, err = req.StartDate.input("start_date"); err != nil {
		return service.ScheduleInput{}, err
	}
	if input.EndDate, err = req.EndDate.input("end_date"); err != nil {
		return service.ScheduleInput{}, err
	}
	return input, nil
}

type scheduleResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Weekdays    []int     `json:"weekdays"`
	Active      bool      `json:"active"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toScheduleResponse(s model.Schedule) scheduleResponse {
	days, err := s.WeekdayList()
	if err != nil || days == nil {
		days = []int{}
	}
	return scheduleResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Weekdays:    days,
		Active:      s.Active,
		StartDate:   formatDay(s.Start()),
		EndDate:     formatDay(s.End()),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(calendar.DayLayout)
	return &s
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.schedules.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]scheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleResponse(schedule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schedule, err := s.schedules.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(*schedule))
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	input, err := req.input()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schedule, err := s.schedules.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(*schedule))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req scheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	input, err := req.input()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schedule, err := s.schedules.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(*schedule))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.schedules.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFindOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	day, err := calendar.ParseDay("date", r.PathValue("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.FindOccurrence(r.Context(), id, day)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

type regenerateResponse struct {
	Date      string `json:"date"`
	Schedules int    `json:"schedules"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
	Failed    []uint `json:"failed"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	report, err := s.schedules.RegenerateFutureTasks(r.Context(), today)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := regenerateResponse{
		Date:      today.Format(calendar.DayLayout),
		Schedules: report.Schedules,
		Created:   report.Created,
		Skipped:   report.Skipped,
		Failed:    report.FailedIDs(),
	}
	writeJSON(w, http.StatusOK, resp)
}
