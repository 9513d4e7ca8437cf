package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

// RoutineRepository implements persistence.RoutineRepository using SQLite.
type RoutineRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoutineRepository creates a new SQLite routine repository.
func NewRoutineRepository(pool *ConnectionPool) *RoutineRepository {
	return &RoutineRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const routineSelect = `
	SELECT r.id, r.day, r.start_minute, r.end_minute, r.class_type, r.teacher,
	       r.course_id, r.section_id, r.room_id, r.created_at, r.updated_at,
	       c.course_code, c.course_name, s.section_name, rm.room_number
	FROM routines r
	JOIN courses c ON c.id = r.course_id
	JOIN sections s ON s.id = r.section_id
	JOIN rooms rm ON rm.id = r.room_id`

// CreateRoutine inserts a routine. The day is stored with its Monday-first
// index so weekday ordering can happen in SQL.
func (r *RoutineRepository) CreateRoutine(ctx context.Context, routine persistence.Routine) error {
	if routine.ID == "" {
		return persistence.ErrConstraintViolation
	}
	dayIndex, err := routineDayIndex(routine.Day)
	if err != nil {
		return err
	}

	if routine.CreatedAt.IsZero() {
		routine.CreatedAt = time.Now().UTC()
	}
	if routine.UpdatedAt.IsZero() {
		routine.UpdatedAt = routine.CreatedAt
	}

	const query = `
		INSERT INTO routines (
			id, day, day_index, start_minute, end_minute, class_type, teacher,
			teacher_folded, course_id, section_id, room_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.helper.Exec(ctx, query,
		routine.ID,
		routine.Day,
		dayIndex,
		routine.StartMinute,
		routine.EndMinute,
		routine.ClassType,
		routine.Teacher,
		foldTeacher(routine.Teacher),
		routine.CourseID,
		routine.SectionID,
		routine.RoomID,
		formatTimestamp(routine.CreatedAt),
		formatTimestamp(routine.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create routine: %w", r.mapper.MapError(err))
	}
	return nil
}

// UpdateRoutine overwrites every mutable column of an existing routine.
func (r *RoutineRepository) UpdateRoutine(ctx context.Context, routine persistence.Routine) error {
	if routine.ID == "" {
		return persistence.ErrConstraintViolation
	}
	dayIndex, err := routineDayIndex(routine.Day)
	if err != nil {
		return err
	}
	if routine.UpdatedAt.IsZero() {
		routine.UpdatedAt = time.Now().UTC()
	}

	const query = `
		UPDATE routines
		SET day = ?, day_index = ?, start_minute = ?, end_minute = ?, class_type = ?,
		    teacher = ?, teacher_folded = ?, course_id = ?, section_id = ?, room_id = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.helper.Exec(ctx, query,
		routine.Day,
		dayIndex,
		routine.StartMinute,
		routine.EndMinute,
		routine.ClassType,
		routine.Teacher,
		foldTeacher(routine.Teacher),
		routine.CourseID,
		routine.SectionID,
		routine.RoomID,
		formatTimestamp(routine.UpdatedAt),
		routine.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update routine: %w", r.mapper.MapError(err))
	}
	return rowsAffected(result)
}

// DeleteRoutine removes a routine. Room statuses that reference it are kept.
func (r *RoutineRepository) DeleteRoutine(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", r.mapper.MapError(err))
	}
	return rowsAffected(result)
}

// GetRoutine retrieves a routine with its catalog display fields.
func (r *RoutineRepository) GetRoutine(ctx context.Context, id string) (persistence.RoutineRecord, error) {
	row := r.helper.QueryRow(ctx, routineSelect+` WHERE r.id = ?`, id)

	record, err := scanRoutineRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.RoutineRecord{}, persistence.ErrNotFound
		}
		return persistence.RoutineRecord{}, fmt.Errorf("failed to get routine: %w", r.mapper.MapError(err))
	}
	return record, nil
}

// ListRoutines returns routines matching filter. Day matches ignore case and
// teacher matches are case-insensitive substring matches.
func (r *RoutineRepository) ListRoutines(ctx context.Context, filter persistence.RoutineFilter) ([]persistence.RoutineRecord, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.RoomID != "" {
		conditions = append(conditions, "r.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Day != "" {
		conditions = append(conditions, "r.day = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(filter.Day))
	}
	if filter.Teacher != "" {
		conditions = append(conditions, `r.teacher_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(foldTeacher(filter.Teacher))+"%")
	}

	query := routineSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + routineOrderClause(filter.Order)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", r.mapper.MapError(err))
	}
	defer rows.Close()

	var records []persistence.RoutineRecord
	for rows.Next() {
		record, err := scanRoutineRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}
	return records, nil
}

func routineOrderClause(order persistence.RoutineOrder) string {
	switch order {
	case persistence.RoutineOrderStartRoom:
		return "r.start_minute ASC, rm.room_number ASC, r.id ASC"
	case persistence.RoutineOrderDayStart:
		return "r.day_index ASC, r.start_minute ASC, r.id ASC"
	default:
		return "r.created_at DESC, r.id DESC"
	}
}

func routineDayIndex(day string) (int, error) {
	weekday, err := scheduler.ParseWeekday(day)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return weekday.Index(), nil
}

// foldTeacher lower-cases a teacher name for matching. SQLite's LIKE only
// folds ASCII letters, so names are folded here before they reach it.
func foldTeacher(value string) string {
	return strings.ToLower(value)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func scanRoutineRecord(row rowScanner) (persistence.RoutineRecord, error) {
	var (
		record               persistence.RoutineRecord
		createdAt, updatedAt string
	)
	err := row.Scan(
		&record.ID,
		&record.Day,
		&record.StartMinute,
		&record.EndMinute,
		&record.ClassType,
		&record.Teacher,
		&record.CourseID,
		&record.SectionID,
		&record.RoomID,
		&createdAt,
		&updatedAt,
		&record.CourseCode,
		&record.CourseName,
		&record.SectionName,
		&record.RoomNumber,
	)
	if err != nil {
		return persistence.RoutineRecord{}, err
	}
	if record.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.RoutineRecord{}, err
	}
	if record.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.RoutineRecord{}, err
	}
	return record, nil
}
