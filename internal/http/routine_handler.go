package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
)

type routineService interface {
	CreateRoutine(ctx context.Context, params application.CreateRoutineParams) (application.RoutineDetail, error)
	UpdateRoutine(ctx context.Context, params application.UpdateRoutineParams) (application.RoutineDetail, error)
	DeleteRoutine(ctx context.Context, principal application.Principal, routineID string) (application.RoutineDetail, error)
	GetRoutine(ctx context.Context, routineID string) (application.RoutineDetail, error)
	ListRoutines(ctx context.Context) ([]application.RoutineDetail, error)
	ListRoutinesByDay(ctx context.Context, day string) ([]application.RoutineDetail, error)
	ListRoutinesByTeacher(ctx context.Context, teacher string) ([]application.RoutineDetail, error)
}

// RoutineHandler serves the /routines endpoints.
type RoutineHandler struct {
	service   routineService
	responder responder
	logger    *slog.Logger
}

func NewRoutineHandler(service routineService, logger *slog.Logger) *RoutineHandler {
	base := defaultLogger(logger)
	return &RoutineHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoutineHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoutineHandler", operation, attrs...)
}

func (h *RoutineHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.RoutineInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode routine request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	routine, err := h.service.CreateRoutine(r.Context(), application.CreateRoutineParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusCreated, "Routine created successfully", routineEnvelope{Routine: toRoutineDTO(routine)})
}

func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	routineID := strings.TrimSpace(r.PathValue("id"))
	if routineID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoutineID)
		return
	}

	routine, err := h.service.GetRoutine(r.Context(), routineID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Routine fetched successfully", routineEnvelope{Routine: toRoutineDTO(routine)})
}

func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	routineID := strings.TrimSpace(r.PathValue("id"))
	if routineID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoutineID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var patch application.RoutinePatch
	if err := decodeJSON(r, &patch); err != nil {
		h.log(r.Context(), "Update", "routine_id", routineID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode routine update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	routine, err := h.service.UpdateRoutine(r.Context(), application.UpdateRoutineParams{
		Principal: principal,
		RoutineID: routineID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Routine updated successfully", routineEnvelope{Routine: toRoutineDTO(routine)})
}

func (h *RoutineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	routineID := strings.TrimSpace(r.PathValue("id"))
	if routineID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoutineID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	routine, err := h.service.DeleteRoutine(r.Context(), principal, routineID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Routine deleted successfully", routineEnvelope{Routine: toRoutineDTO(routine)})
}

func (h *RoutineHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	routines, err := h.service.ListRoutines(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := toRoutineDTOs(routines)
	h.responder.writeList(r.Context(), w, "Routines fetched successfully", routinesEnvelope{Routines: dtos}, len(dtos))
}

func (h *RoutineHandler) ListByDay(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	day := r.PathValue("day")
	routines, err := h.service.ListRoutinesByDay(r.Context(), day)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := toRoutineDTOs(routines)
	h.responder.writeList(r.Context(), w, "Routines for "+strings.TrimSpace(day)+" fetched successfully", routinesEnvelope{Routines: dtos}, len(dtos))
}

func (h *RoutineHandler) ListByTeacher(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	teacher := r.PathValue("teacher")
	routines, err := h.service.ListRoutinesByTeacher(r.Context(), teacher)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := toRoutineDTOs(routines)
	h.responder.writeList(r.Context(), w, "Routines for teacher fetched successfully", routinesEnvelope{Routines: dtos}, len(dtos))
}

type routineEnvelope struct {
	Routine routineDTO `json:"routine"`
}

type routinesEnvelope struct {
	Routines []routineDTO `json:"routines"`
}

type courseRef struct {
	ID         string `json:"id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
}

type sectionRef struct {
	ID          string `json:"id"`
	SectionName string `json:"section_name"`
}

type roomRef struct {
	ID         string `json:"id"`
	RoomNumber string `json:"room_number"`
	RoomType   string `json:"room_type,omitempty"`
}

type routineDTO struct {
	ID        string     `json:"id"`
	Day       string     `json:"day"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	ClassType string     `json:"class_type"`
	Teacher   string     `json:"teacher"`
	Course    courseRef  `json:"course"`
	Section   sectionRef `json:"section"`
	Room      roomRef    `json:"room"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

func toRoutineDTO(routine application.RoutineDetail) routineDTO {
	return routineDTO{
		ID:        routine.ID,
		Day:       routine.Day.String(),
		StartTime: routine.Interval.Start.String(),
		EndTime:   routine.Interval.End.String(),
		ClassType: routine.ClassType,
		Teacher:   routine.Teacher,
		Course:    courseRef{ID: routine.CourseID, CourseCode: routine.CourseCode, CourseName: routine.CourseName},
		Section:   sectionRef{ID: routine.SectionID, SectionName: routine.SectionName},
		Room:      roomRef{ID: routine.RoomID, RoomNumber: routine.RoomNumber},
		CreatedAt: formatTimestamp(routine.CreatedAt),
		UpdatedAt: formatTimestamp(routine.UpdatedAt),
	}
}

func toRoutineDTOs(routines []application.RoutineDetail) []routineDTO {
	out := make([]routineDTO, 0, len(routines))
	for _, routine := range routines {
		out = append(out, toRoutineDTO(routine))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
