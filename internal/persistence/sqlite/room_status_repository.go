package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// RoomStatusRepository implements persistence.RoomStatusRepository using SQLite.
type RoomStatusRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomStatusRepository creates a new SQLite room status repository.
func NewRoomStatusRepository(pool *ConnectionPool) *RoomStatusRepository {
	return &RoomStatusRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// routine_id has no foreign key, so the routine join is a LEFT JOIN and a
// deleted routine yields NULL summary columns.
const roomStatusSelect = `
	SELECT st.id, st.room_id, st.status, st.status_date, st.routine_id, st.day_of_week,
	       st.start_minute, st.end_minute, st.is_recurring, st.updated_by,
	       st.created_at, st.updated_at,
	       rm.room_number, rm.room_type, u.name, u.email,
	       r.id, r.day, r.start_minute, r.end_minute, r.class_type, r.teacher
	FROM room_statuses st
	JOIN rooms rm ON rm.id = st.room_id
	JOIN users u ON u.id = st.updated_by
	LEFT JOIN routines r ON r.id = st.routine_id`

// CreateRoomStatus appends a status record.
func (r *RoomStatusRepository) CreateRoomStatus(ctx context.Context, status persistence.RoomStatus) error {
	if status.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if status.CreatedAt.IsZero() {
		status.CreatedAt = time.Now().UTC()
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = status.CreatedAt
	}

	const query = `
		INSERT INTO room_statuses (
			id, room_id, status, status_date, routine_id, day_of_week,
			start_minute, end_minute, is_recurring, updated_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		status.ID,
		status.RoomID,
		status.Status,
		formatDate(status.StatusDate),
		nullableString(status.RoutineID),
		nullableString(status.DayOfWeek),
		nullableInt(status.StartMinute),
		nullableInt(status.EndMinute),
		status.IsRecurring,
		status.UpdatedBy,
		formatTimestamp(status.CreatedAt),
		formatTimestamp(status.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create room status: %w", r.mapper.MapError(err))
	}
	return nil
}

// UpdateRoomStatus overwrites every mutable column of an existing record.
func (r *RoomStatusRepository) UpdateRoomStatus(ctx context.Context, status persistence.RoomStatus) error {
	if status.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	const query = `
		UPDATE room_statuses
		SET room_id = ?, status = ?, status_date = ?, routine_id = ?, day_of_week = ?,
		    start_minute = ?, end_minute = ?, is_recurring = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.helper.Exec(ctx, query,
		status.RoomID,
		status.Status,
		formatDate(status.StatusDate),
		nullableString(status.RoutineID),
		nullableString(status.DayOfWeek),
		nullableInt(status.StartMinute),
		nullableInt(status.EndMinute),
		status.IsRecurring,
		status.UpdatedBy,
		formatTimestamp(status.UpdatedAt),
		status.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", r.mapper.MapError(err))
	}
	return rowsAffected(result)
}

// DeleteRoomStatus removes one status record.
func (r *RoomStatusRepository) DeleteRoomStatus(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM room_statuses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room status: %w", r.mapper.MapError(err))
	}
	return rowsAffected(result)
}

// GetRoomStatus retrieves one joined status record.
func (r *RoomStatusRepository) GetRoomStatus(ctx context.Context, id string) (persistence.RoomStatusRecord, error) {
	row := r.helper.QueryRow(ctx, roomStatusSelect+` WHERE st.id = ?`, id)

	record, err := scanRoomStatusRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.RoomStatusRecord{}, persistence.ErrNotFound
		}
		return persistence.RoomStatusRecord{}, fmt.Errorf("failed to get room status: %w", r.mapper.MapError(err))
	}
	return record, nil
}

// ListRoomStatuses returns joined records, most recently updated first.
func (r *RoomStatusRepository) ListRoomStatuses(ctx context.Context, filter persistence.RoomStatusFilter) ([]persistence.RoomStatusRecord, error) {
	query := roomStatusSelect
	var args []any
	if filter.RoomID != "" {
		query += ` WHERE st.room_id = ?`
		args = append(args, filter.RoomID)
	}
	query += ` ORDER BY st.updated_at DESC, st.id DESC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list room statuses: %w", r.mapper.MapError(err))
	}
	defer rows.Close()

	var records []persistence.RoomStatusRecord
	for rows.Next() {
		record, err := scanRoomStatusRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room status: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room statuses: %w", err)
	}
	return records, nil
}

func scanRoomStatusRecord(row rowScanner) (persistence.RoomStatusRecord, error) {
	var (
		record                           persistence.RoomStatusRecord
		statusDate, createdAt, updatedAt string
		routineID, dayOfWeek             sql.NullString
		startMinute, endMinute           sql.NullInt64
		summaryID, summaryDay            sql.NullString
		summaryStart, summaryEnd         sql.NullInt64
		summaryClass, summaryTeacher     sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.RoomID,
		&record.Status,
		&statusDate,
		&routineID,
		&dayOfWeek,
		&startMinute,
		&endMinute,
		&record.IsRecurring,
		&record.UpdatedBy,
		&createdAt,
		&updatedAt,
		&record.RoomNumber,
		&record.RoomType,
		&record.UpdaterName,
		&record.UpdaterEmail,
		&summaryID,
		&summaryDay,
		&summaryStart,
		&summaryEnd,
		&summaryClass,
		&summaryTeacher,
	)
	if err != nil {
		return persistence.RoomStatusRecord{}, err
	}

	if record.StatusDate, err = parseDate("status_date", statusDate); err != nil {
		return persistence.RoomStatusRecord{}, err
	}
	if record.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.RoomStatusRecord{}, err
	}
	if record.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.RoomStatusRecord{}, err
	}

	record.RoutineID = stringPtr(routineID)
	record.DayOfWeek = stringPtr(dayOfWeek)
	record.StartMinute = intPtr(startMinute)
	record.EndMinute = intPtr(endMinute)

	if summaryID.Valid {
		record.Routine = &persistence.RoutineSummary{
			ID:          summaryID.String,
			Day:         summaryDay.String,
			StartMinute: int(summaryStart.Int64),
			EndMinute:   int(summaryEnd.Int64),
			ClassType:   summaryClass.String,
			Teacher:     summaryTeacher.String,
		}
	}
	return record, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	n := int(value.Int64)
	return &n
}
