package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	membookingrepo "github.com/brightdesk/room-booking-api/internal/adapters/memory/bookingrepo"
	memclock "github.com/brightdesk/room-booking-api/internal/adapters/memory/clock"
	memidempotency "github.com/brightdesk/room-booking-api/internal/adapters/memory/idempotency"
	memroomdir "github.com/brightdesk/room-booking-api/internal/adapters/memory/roomdir"
	"github.com/brightdesk/room-booking-api/internal/app/bookings"
	roomdirport "github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	repo := membookingrepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	dir := memroomdir.NewDirectory(
		roomdirport.Room{ID: "room-1", Name: "Einstein", Capacity: 8},
		roomdirport.Room{ID: "room-2", Name: "Curie", Capacity: 4},
	)
	svc := bookings.NewService(repo, dir, memidempotency.NewStore(clk, 24*time.Hour), clk)
	return NewRouter(NewServer(svc))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

const createBody = `{
	"roomId": "room-1",
	"userId": "user-1",
	"title": "Design review",
	"description": "weekly",
	"startTime": "2025-03-10T14:00:00Z",
	"endTime": "2025-03-10T15:00:00Z"
}`

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["status"] != "healthy" {
		t.Fatalf("body=%v", env)
	}
}

func TestHandler_CreateBooking(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["status"] != "success" {
		t.Fatalf("envelope=%v", env)
	}
	data := env["data"].(map[string]any)
	if data["id"] == "" || data["status"] != "CONFIRMED" || data["description"] != "weekly" {
		t.Fatalf("data=%v", data)
	}
}

func TestHandler_CreateBooking_MalformedTimestamps(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	body := `{"roomId":"room-1","userId":"u","title":"t","startTime":"invalid-date","endTime":"invalid-date"}`
	rec := doJSON(t, h, http.MethodPost, "/api/bookings", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["status"] != "error" {
		t.Fatalf("envelope=%v", env)
	}
	if env["error"].(map[string]any)["code"] != "INVALID_REQUEST" {
		t.Fatalf("envelope=%v", env)
	}
}

func TestHandler_CreateBooking_Conflict(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	if rec := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status=%d", rec.Code)
	}
	overlap := strings.Replace(createBody, "user-1", "user-2", 1)
	rec := doJSON(t, h, http.MethodPost, "/api/bookings", overlap, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["error"].(map[string]any)["code"] != "SCHEDULING_CONFLICT" {
		t.Fatalf("envelope=%v", env)
	}
}

func TestHandler_CreateBooking_IdempotentReplay(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	header := map[string]string{"Idempotency-Key": "key-1"}

	first := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, header)
	if first.Code != http.StatusCreated {
		t.Fatalf("first: status=%d", first.Code)
	}
	second := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, header)
	if second.Code != http.StatusCreated {
		t.Fatalf("second: status=%d body=%s", second.Code, second.Body.String())
	}

	id1 := decodeEnvelope(t, first)["data"].(map[string]any)["id"]
	env2 := decodeEnvelope(t, second)
	if id2 := env2["data"].(map[string]any)["id"]; id1 != id2 {
		t.Fatalf("replay returned a different booking: %v vs %v", id1, id2)
	}
	if env2["replayed"] != true {
		t.Fatalf("second envelope not marked replayed: %v", env2)
	}
}

func TestHandler_GetBooking_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/bookings/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["error"].(map[string]any)["code"] != "NOT_FOUND" {
		t.Fatalf("envelope=%v", env)
	}
}

func TestHandler_CancelBooking(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	created := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, nil)
	if created.Code != http.StatusCreated {
		t.Fatalf("create: status=%d", created.Code)
	}
	id := decodeEnvelope(t, created)["data"].(map[string]any)["id"].(string)

	rec := doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/bookings/%s/cancel", id), `{"reason":"no longer needed"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["status"] != "CANCELLED" || data["cancellationReason"] != "no longer needed" {
		t.Fatalf("data=%v", data)
	}

	// Repeat cancellation is a success returning the same record.
	again := doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/bookings/%s/cancel", id), `{"reason":"retry"}`, nil)
	if again.Code != http.StatusOK {
		t.Fatalf("repeat cancel: status=%d", again.Code)
	}
	if decodeEnvelope(t, again)["data"].(map[string]any)["cancellationReason"] != "no longer needed" {
		t.Fatalf("repeat cancel rewrote reason")
	}
}

func TestHandler_Availability(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	if rec := doJSON(t, h, http.MethodPost, "/api/bookings", createBody, nil); rec.Code != http.StatusCreated {
		t.Fatalf("create: status=%d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/rooms/room-1/availability?date=2025-03-10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	slots := data["slots"].([]any)
	if len(slots) != 3 {
		t.Fatalf("slots=%v", slots)
	}
	occupied := slots[1].(map[string]any)
	if occupied["available"] != false {
		t.Fatalf("middle slot not occupied: %v", occupied)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/rooms/room-1/availability", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date: status=%d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/rooms/room-x/availability?date=2025-03-10", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown room: status=%d", rec.Code)
	}
}

func TestHandler_ListRooms(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/rooms", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("rooms=%v", data)
	}
	first := data[0].(map[string]any)
	if first["name"] != "Curie" {
		t.Fatalf("unexpected ordering: %v", data)
	}
}
