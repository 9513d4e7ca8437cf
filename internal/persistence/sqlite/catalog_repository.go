package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// CatalogRepository implements persistence.CatalogRepository using SQLite.
type CatalogRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCatalogRepository creates a new SQLite catalog repository.
func NewCatalogRepository(pool *ConnectionPool) *CatalogRepository {
	return &CatalogRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

func stamps(created, updated time.Time) (time.Time, time.Time) {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}
	return created, updated
}

// CreateRoom inserts a room.
func (r *CatalogRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	room.CreatedAt, room.UpdatedAt = stamps(room.CreatedAt, room.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO rooms (id, room_number, room_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.RoomNumber, room.RoomType,
		formatTimestamp(room.CreatedAt), formatTimestamp(room.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", r.mapper.MapError(err))
	}
	return nil
}

// CreateCourse inserts a course.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course persistence.Course) error {
	if course.ID == "" {
		return persistence.ErrConstraintViolation
	}
	course.CreatedAt, course.UpdatedAt = stamps(course.CreatedAt, course.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO courses (id, course_code, course_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		course.ID, course.CourseCode, course.CourseName,
		formatTimestamp(course.CreatedAt), formatTimestamp(course.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", r.mapper.MapError(err))
	}
	return nil
}

// CreateSection inserts a section.
func (r *CatalogRepository) CreateSection(ctx context.Context, section persistence.Section) error {
	if section.ID == "" {
		return persistence.ErrConstraintViolation
	}
	section.CreatedAt, section.UpdatedAt = stamps(section.CreatedAt, section.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO sections (id, section_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		section.ID, section.SectionName,
		formatTimestamp(section.CreatedAt), formatTimestamp(section.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create section: %w", r.mapper.MapError(err))
	}
	return nil
}

// GetRoom retrieves a room by ID.
func (r *CatalogRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT id, room_number, room_type, created_at, updated_at
		FROM rooms
		WHERE id = ?`, id)

	room, err := scanRoom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, fmt.Errorf("failed to get room: %w", r.mapper.MapError(err))
	}
	return room, nil
}

// ListRooms returns every room ordered by room number.
func (r *CatalogRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, room_number, room_type, created_at, updated_at
		FROM rooms
		ORDER BY room_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", r.mapper.MapError(err))
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// RoomExists reports whether a room with the given ID exists.
func (r *CatalogRepository) RoomExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.helper, r.mapper, "rooms", id)
}

// CourseExists reports whether a course with the given ID exists.
func (r *CatalogRepository) CourseExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.helper, r.mapper, "courses", id)
}

// SectionExists reports whether a section with the given ID exists.
func (r *CatalogRepository) SectionExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.helper, r.mapper, "sections", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		createdAt, updatedAt string
	)
	if err := row.Scan(&room.ID, &room.RoomNumber, &room.RoomType, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, err
	}
	var err error
	if room.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
