// Package http exposes the timetable services over JSON.
//
// Every response uses the envelope {"status","message","data","count"}, where
// status is "success" or "error" and count accompanies list payloads.
//
//   - GET /routines, POST /routines, GET|PATCH|DELETE /routines/{id}: routine
//     management. Mutations require the ADMIN or ASSISTANT_ADMIN role.
//   - GET /routines/day/{day}, GET /routines/teacher/{teacher}: filtered routine
//     listings.
//   - GET /room-statuses, POST /room-statuses, PATCH|DELETE /room-statuses/{id}:
//     room status history. Which statuses a caller may set is decided by the
//     service's status policy.
//   - GET /rooms/{id}/status?at=RFC3339: effective status of a room.
//   - GET /healthz: unauthenticated liveness probe.
//
// Callers authenticate with "Authorization: Bearer <token>".
package http
