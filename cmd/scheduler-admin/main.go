// Command scheduler-admin seeds the catalog and accounts the timetable API
// depends on.
//
//	scheduler-admin [-db path] add-user -name N -email E -role ROLE
//	scheduler-admin [-db path] add-room -number A101 -type lecture
//	scheduler-admin [-db path] add-course -code CSE101 -name "Structured Programming"
//	scheduler-admin [-db path] add-section -name A
//	scheduler-admin [-db path] list-rooms
//
// add-user prints the caller token once; only its hash is stored.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/config"
	"github.com/example/classroom-scheduler/internal/identity"
	"github.com/example/classroom-scheduler/internal/logging"
	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/persistence/sqlite"
)

var errUsage = errors.New("usage: scheduler-admin [-db path] add-user|add-room|add-course|add-section|list-rooms [flags]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type command struct {
	store  *sqlite.Store
	out    io.Writer
	params identity.Argon2idParams
	now    func() time.Time
	newID  func() string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	global := flag.NewFlagSet("scheduler-admin", flag.ContinueOnError)
	global.SetOutput(stderr)
	dbPath := global.String("db", cfg.DatabasePath, "SQLite database path")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	logger, err := logging.New(stderr, "warn", "text")
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(*dbPath), logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	cmd := command{
		store:  store,
		out:    stdout,
		params: identity.DefaultArgon2idParams,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	return cmd.dispatch(ctx, rest[0], rest[1:], stderr)
}

func (c command) dispatch(ctx context.Context, name string, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch name {
	case "add-user":
		userName := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		role := fs.String("role", string(application.RoleTeacher), "ADMIN, ASSISTANT_ADMIN, TEACHER or STUDENT")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return c.addUser(ctx, *userName, *email, *role)
	case "add-room":
		number := fs.String("number", "", "room number")
		roomType := fs.String("type", "", "room type")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return c.addRoom(ctx, *number, *roomType)
	case "add-course":
		code := fs.String("code", "", "course code")
		courseName := fs.String("name", "", "course name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return c.addCourse(ctx, *code, *courseName)
	case "add-section":
		sectionName := fs.String("name", "", "section name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return c.addSection(ctx, *sectionName)
	case "list-rooms":
		return c.listRooms(ctx)
	default:
		return errUsage
	}
}

func (c command) addUser(ctx context.Context, name, email, role string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	parsedRole := application.Role(strings.ToUpper(strings.TrimSpace(role)))
	if name == "" || email == "" {
		return errors.New("add-user: -name and -email are required")
	}
	if !parsedRole.Valid() {
		return fmt.Errorf("add-user: unknown role %q", role)
	}

	id := c.newID()
	token, hash, err := identity.IssueToken(id, c.params)
	if err != nil {
		return err
	}
	now := c.now()
	err = c.store.Users.CreateUser(ctx, persistence.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      string(parsedRole),
		TokenHash: hash,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return describe("user", err)
	}

	fmt.Fprintf(c.out, "user %s created\ntoken: %s\n", id, token)
	return nil
}

func (c command) addRoom(ctx context.Context, number, roomType string) error {
	number, roomType = strings.TrimSpace(number), strings.TrimSpace(roomType)
	if number == "" || roomType == "" {
		return errors.New("add-room: -number and -type are required")
	}
	id := c.newID()
	now := c.now()
	if err := c.store.Catalog.CreateRoom(ctx, persistence.Room{ID: id, RoomNumber: number, RoomType: roomType, CreatedAt: now, UpdatedAt: now}); err != nil {
		return describe("room", err)
	}
	fmt.Fprintf(c.out, "room %s created\n", id)
	return nil
}

func (c command) addCourse(ctx context.Context, code, name string) error {
	code, name = strings.TrimSpace(code), strings.TrimSpace(name)
	if code == "" || name == "" {
		return errors.New("add-course: -code and -name are required")
	}
	id := c.newID()
	now := c.now()
	if err := c.store.Catalog.CreateCourse(ctx, persistence.Course{ID: id, CourseCode: code, CourseName: name, CreatedAt: now, UpdatedAt: now}); err != nil {
		return describe("course", err)
	}
	fmt.Fprintf(c.out, "course %s created\n", id)
	return nil
}

func (c command) addSection(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("add-section: -name is required")
	}
	id := c.newID()
	now := c.now()
	if err := c.store.Catalog.CreateSection(ctx, persistence.Section{ID: id, SectionName: name, CreatedAt: now, UpdatedAt: now}); err != nil {
		return describe("section", err)
	}
	fmt.Fprintf(c.out, "section %s created\n", id)
	return nil
}

func (c command) listRooms(ctx context.Context) error {
	rooms, err := c.store.Catalog.ListRooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", room.ID, room.RoomNumber, room.RoomType)
	}
	return nil
}

func describe(entity string, err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%s already exists: %w", entity, err)
	}
	return fmt.Errorf("failed to create %s: %w", entity, err)
}
