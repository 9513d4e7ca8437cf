package testfixtures

import (
	"context"
	"testing"
)

func TestServiceFactoryDefaults(t *testing.T) {
	factory := NewServiceFactory()
	if factory.Clock == nil || factory.IDGenerator == nil {
		t.Fatalf("expected default clock and id generator")
	}

	custom := NewIDGenerator("custom")
	factory = NewServiceFactory(WithIDGenerator(custom), WithClock(nil))
	if factory.IDGenerator != custom {
		t.Fatalf("expected custom id generator")
	}
	if factory.Clock == nil {
		t.Fatalf("expected nil clock to fall back to default")
	}

	if factory.NewRoutineService(RoutineServiceDeps{}) == nil {
		t.Fatalf("expected routine service")
	}
	if factory.NewRoomStatusService(RoomStatusServiceDeps{}) == nil {
		t.Fatalf("expected room status service")
	}
}

func TestSQLiteHarnessSeedsCatalog(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	for _, id := range []string{RoomLecture, RoomLab} {
		ok, err := harness.Store.Catalog.RoomExists(ctx, id)
		if err != nil || !ok {
			t.Fatalf("expected room %s to exist, got %v %v", id, ok, err)
		}
	}
	ok, err := harness.Store.Catalog.CourseExists(ctx, CourseProgramming)
	if err != nil || !ok {
		t.Fatalf("expected course to exist, got %v %v", ok, err)
	}

	user, err := harness.Store.Users.GetUser(ctx, UserTeacher)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if user.TokenHash == "" || harness.Tokens[UserTeacher] == "" {
		t.Fatalf("expected seeded user to carry a token")
	}
	if Principal(UserTeacher).Role != "TEACHER" {
		t.Fatalf("expected teacher principal, got %+v", Principal(UserTeacher))
	}
}
