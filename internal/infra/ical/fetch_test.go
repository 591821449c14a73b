package ical

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	const feed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	body, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != feed {
		t.Fatalf("body = %q", body)
	}
	if gotAccept != "text/calendar" {
		t.Fatalf("accept header = %q", gotAccept)
	}
}

func TestFetchRejectedOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrFeedRejected) {
		t.Fatalf("want ErrFeedRejected, got %v", err)
	}
}

func TestFetchUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), url)
	if !errors.Is(err, ErrFeedUnreachable) {
		t.Fatalf("want ErrFeedUnreachable, got %v", err)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := NewFetcher(time.Second).Fetch(context.Background(), "://not-a-url")
	if !errors.Is(err, ErrFeedUnreachable) {
		t.Fatalf("want ErrFeedUnreachable, got %v", err)
	}
}
