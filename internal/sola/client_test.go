package sola

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// graphServer fakes the GraphQL endpoint with a fixed dataset size: it
// honors the requested limit/offset and returns rows from a dataset of
// `total` events.
func graphServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string `json:"query"`
			Variables struct {
				Limit  int `json:"limit"`
				Offset int `json:"offset"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		n := total - body.Variables.Offset
		if n < 0 {
			n = 0
		}
		if n > body.Variables.Limit {
			n = body.Variables.Limit
		}
		rows := make([]string, 0, n)
		for i := 0; i < n; i++ {
			id := body.Variables.Offset + i + 1
			rows = append(rows, fmt.Sprintf(
				`{"id":%d,"title":"Event %d","content":"","start_time":"2024-06-01T0%d:00:00","end_time":"2024-06-01T0%d:30:00","owner":{"username":"host"}}`,
				id, id, i%10, i%10))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"events":[%s]}}`, strings.Join(rows, ","))
	}))
}

func TestEvents_HasMoreDetection(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	// 11 matching rows: one page of 10 plus a further page.
	srv := graphServer(t, 11)
	c := NewClient(srv.URL, "UTC")
	page := c.Events(context.Background(), []int64{1}, start, end, 10, 0)
	srv.Close()
	if len(page.Events) != 10 {
		t.Fatalf("want 10 events, got %d", len(page.Events))
	}
	if !page.HasMore {
		t.Fatal("want HasMore=true for 11 matching rows")
	}

	// Exactly 10 rows: full page, nothing further.
	srv = graphServer(t, 10)
	c = NewClient(srv.URL, "UTC")
	page = c.Events(context.Background(), []int64{1}, start, end, 10, 0)
	srv.Close()
	if len(page.Events) != 10 || page.HasMore {
		t.Fatalf("want 10 events and HasMore=false, got %d / %v", len(page.Events), page.HasMore)
	}
}

func TestEvents_OrderedAndOffset(t *testing.T) {
	srv := graphServer(t, 15)
	defer srv.Close()
	c := NewClient(srv.URL, "UTC")
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	page := c.Events(context.Background(), []int64{1}, start, start.AddDate(0, 0, 1), 10, 10)
	if len(page.Events) != 5 || page.HasMore {
		t.Fatalf("want final page of 5, got %d / %v", len(page.Events), page.HasMore)
	}
	if page.Events[0].ID != 11 {
		t.Fatalf("offset not applied, first id %d", page.Events[0].ID)
	}
}

func TestEvents_TransportFailureSoftFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "UTC")
	page := c.Events(context.Background(), []int64{1}, time.Now(), time.Now(), 10, 0)
	if len(page.Events) != 0 || page.HasMore {
		t.Fatalf("want empty page on failure, got %d / %v", len(page.Events), page.HasMore)
	}
}

func TestGroupByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"groups":[{"id":42}]}}`)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "UTC")
	id, ok := c.GroupByName(context.Background(), "mygroup")
	if !ok || id != 42 {
		t.Fatalf("want 42/true, got %d/%v", id, ok)
	}
}

func TestGroupByName_Miss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"groups":[]}}`)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "UTC")
	if _, ok := c.GroupByName(context.Background(), "nope"); ok {
		t.Fatal("want miss for unknown group")
	}
}

func TestGroupTimezone_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"groups":[]}}`)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "Asia/Shanghai")
	loc := c.GroupTimezone(context.Background(), []int64{1})
	if loc.String() != "Asia/Shanghai" {
		t.Fatalf("want fallback zone, got %s", loc)
	}
}

func TestGroupTimezone_Resolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"groups":[{"username":"g","timezone":"Europe/Berlin"}]}}`)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "Asia/Shanghai")
	loc := c.GroupTimezone(context.Background(), []int64{1})
	if loc.String() != "Europe/Berlin" {
		t.Fatalf("want Europe/Berlin, got %s", loc)
	}
}
