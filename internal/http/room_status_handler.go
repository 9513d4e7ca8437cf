package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
)

type roomStatusService interface {
	SetStatus(ctx context.Context, params application.SetStatusParams) (application.RoomStatusDetail, error)
	UpdateStatus(ctx context.Context, params application.UpdateStatusParams) (application.RoomStatusDetail, error)
	DeleteStatus(ctx context.Context, principal application.Principal, statusID string) (application.RoomStatusDetail, error)
	ListStatuses(ctx context.Context) ([]application.RoomStatusDetail, error)
	CurrentStatus(ctx context.Context, roomID string, at time.Time) (application.RoomOccupancy, error)
}

// RoomStatusHandler serves the /room-statuses endpoints and the per-room status view.
type RoomStatusHandler struct {
	service   roomStatusService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewRoomStatusHandler(service roomStatusService, logger *slog.Logger) *RoomStatusHandler {
	base := defaultLogger(logger)
	return &RoomStatusHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *RoomStatusHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomStatusHandler", operation, attrs...)
}

func (h *RoomStatusHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *RoomStatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.StatusInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status, err := h.service.SetStatus(r.Context(), application.SetStatusParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusCreated, "Room status created successfully", roomStatusEnvelope{RoomStatus: toRoomStatusDTO(status)})
}

func (h *RoomStatusHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	statusID := strings.TrimSpace(r.PathValue("id"))
	if statusID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStatusID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var patch application.StatusPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.log(r.Context(), "Update", "status_id", statusID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room status update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status, err := h.service.UpdateStatus(r.Context(), application.UpdateStatusParams{
		Principal: principal,
		StatusID:  statusID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Room status updated successfully", roomStatusEnvelope{RoomStatus: toRoomStatusDTO(status)})
}

func (h *RoomStatusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	statusID := strings.TrimSpace(r.PathValue("id"))
	if statusID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStatusID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	deleted, err := h.service.DeleteStatus(r.Context(), principal, statusID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Room status deleted successfully", roomStatusEnvelope{RoomStatus: toRoomStatusDTO(deleted)})
}

func (h *RoomStatusHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	statuses, err := h.service.ListStatuses(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]roomStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		dtos = append(dtos, toRoomStatusDTO(status))
	}
	h.responder.writeList(r.Context(), w, "Room statuses fetched successfully", roomStatusesEnvelope{RoomStatuses: dtos}, len(dtos))
}

// Current reports the effective status of a room, at the instant given by the
// "at" query parameter or now.
func (h *RoomStatusHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	at := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
		parsed, err := parseInstant(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidInstant)
			return
		}
		at = parsed
	}

	occupancy, err := h.service.CurrentStatus(r.Context(), roomID, at)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Room status fetched successfully", occupancyEnvelope{Occupancy: toOccupancyDTO(occupancy)})
}

// parseInstant parses an RFC3339 timestamp. An unescaped "+" in a query string
// decodes to a space, so a space before the offset is read as "+".
func parseInstant(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err == nil || !strings.Contains(raw, " ") {
		return parsed, err
	}
	return time.Parse(time.RFC3339, strings.Replace(raw, " ", "+", 1))
}

type roomStatusEnvelope struct {
	RoomStatus roomStatusDTO `json:"room_status"`
}

type roomStatusesEnvelope struct {
	RoomStatuses []roomStatusDTO `json:"room_statuses"`
}

type occupancyEnvelope struct {
	Occupancy occupancyDTO `json:"occupancy"`
}

type updaterRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type routineSummaryDTO struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ClassType string `json:"class_type"`
	Teacher   string `json:"teacher"`
}

type roomStatusDTO struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	StatusDate  string             `json:"status_date"`
	Kind        string             `json:"kind"`
	DayOfWeek   *string            `json:"day_of_week"`
	StartTime   *string            `json:"start_time"`
	EndTime     *string            `json:"end_time"`
	IsRecurring bool               `json:"is_recurring"`
	RoutineID   *string            `json:"routine_id"`
	Room        roomRef            `json:"room"`
	UpdatedBy   updaterRef         `json:"updated_by"`
	Routine     *routineSummaryDTO `json:"routine"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

func toRoomStatusDTO(status application.RoomStatusDetail) roomStatusDTO {
	dto := roomStatusDTO{
		ID:          status.ID,
		Status:      string(status.Status),
		StatusDate:  status.StatusDate.Format("2006-01-02"),
		Kind:        string(status.Kind()),
		IsRecurring: status.IsRecurring,
		RoutineID:   status.RoutineID,
		Room:        roomRef{ID: status.RoomID, RoomNumber: status.RoomNumber, RoomType: status.RoomType},
		UpdatedBy:   updaterRef{ID: status.UpdatedBy, Name: status.UpdaterName, Email: status.UpdaterEmail},
		CreatedAt:   formatTimestamp(status.CreatedAt),
		UpdatedAt:   formatTimestamp(status.UpdatedAt),
	}
	if status.DayOfWeek != nil {
		day := status.DayOfWeek.String()
		dto.DayOfWeek = &day
	}
	if status.Window != nil {
		start, end := status.Window.Start.String(), status.Window.End.String()
		dto.StartTime, dto.EndTime = &start, &end
	}
	if status.Routine != nil {
		dto.Routine = &routineSummaryDTO{
			ID:        status.Routine.ID,
			Day:       status.Routine.Day.String(),
			StartTime: status.Routine.Interval.Start.String(),
			EndTime:   status.Routine.Interval.End.String(),
			ClassType: status.Routine.ClassType,
			Teacher:   status.Routine.Teacher,
		}
	}
	return dto
}

type occupancyDTO struct {
	RoomID   string         `json:"room_id"`
	At       string         `json:"at"`
	Status   string         `json:"status"`
	Source   string         `json:"source"`
	Override *roomStatusDTO `json:"override,omitempty"`
	Routine  *routineDTO    `json:"routine,omitempty"`
}

func toOccupancyDTO(occupancy application.RoomOccupancy) occupancyDTO {
	dto := occupancyDTO{
		RoomID: occupancy.RoomID,
		At:     occupancy.At.Format(time.RFC3339),
		Status: string(occupancy.Status),
		Source: string(occupancy.Source),
	}
	if occupancy.Override != nil {
		override := toRoomStatusDTO(*occupancy.Override)
		dto.Override = &override
	}
	if occupancy.Routine != nil {
		routine := toRoutineDTO(*occupancy.Routine)
		dto.Routine = &routine
	}
	return dto
}
