package middleware

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"schooladmin/models"

	"github.com/gofiber/fiber/v2"
)

type recorderStub struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
	done    chan struct{}
}

func (r *recorderStub) Record(_ context.Context, e models.ActivityEntry) error {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestResourceFromPath(t *testing.T) {
	tests := map[string]string{
		"/api/students/3":  "students",
		"/api/fees":        "fees",
		"/api/attendance/": "attendance",
		"/health":          "health",
	}
	for path, want := range tests {
		if got := ResourceFromPath(path); got != want {
			t.Fatalf("ResourceFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLogActivityMiddleware(t *testing.T) {
	rec := &recorderStub{done: make(chan struct{}, 4)}
	app := fiber.New()
	app.Use(LogActivityMiddleware(rec))
	app.Put("/api/students/:id", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	app.Post("/api/fees", func(c *fiber.Ctx) error { return c.SendStatus(400) })
	app.Get("/api/students", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	for _, req := range []struct{ method, path string }{
		{"GET", "/api/students"},
		{"POST", "/api/fees"},
		{"PUT", "/api/students/12"},
	} {
		if _, err := app.Test(httptest.NewRequest(req.method, req.path, nil)); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected activity to be recorded")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Action != "UPDATE" || e.Resource != "students" || e.ResourceID != 12 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

type slowRecorder struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
	wg      sync.WaitGroup
}

func (r *slowRecorder) Record(_ context.Context, e models.ActivityEntry) error {
	defer r.wg.Done()
	time.Sleep(200 * time.Millisecond)
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return nil
}

func TestActivityEntriesOutliveRequestBuffers(t *testing.T) {
	rec := &slowRecorder{}
	app := fiber.New()
	app.Use(LogActivityMiddleware(rec))
	app.Post("/api/:resource/:id", func(c *fiber.Ctx) error { return c.SendStatus(201) })

	requests := []struct{ path, agent, resource string }{
		{"/api/students/1111111", "agent-AAAAAAAA", "students"},
		{"/api/fees/2222222", "agent-BBBBBBBB", "fees"},
		{"/api/results/3333333", "agent-CCCCCCCC", "results"},
	}
	rec.wg.Add(len(requests))
	for _, r := range requests {
		req := httptest.NewRequest("POST", r.path, nil)
		req.Header.Set("User-Agent", r.agent)
		if _, err := app.Test(req); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
	rec.wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	got := map[string]models.ActivityEntry{}
	for _, e := range rec.entries {
		got[e.Path] = e
	}
	for _, r := range requests {
		e, ok := got[r.path]
		if !ok {
			t.Fatalf("no entry for %s; recorded %+v", r.path, rec.entries)
		}
		if e.UserAgent != r.agent || e.Resource != r.resource || e.Method != "POST" {
			t.Fatalf("entry for %s corrupted: %+v", r.path, e)
		}
	}
}
