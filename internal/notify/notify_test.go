package notify

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/inject"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Header:     make(http.Header),
	}
}

func TestSendPostsMessage(t *testing.T) {
	ctx := context.Background()

	var receivedMethod, receivedPath, receivedBody, receivedTitle, receivedTags string

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			receivedMethod = r.Method
			receivedPath = r.URL.Path
			receivedTitle = r.Header.Get("Title")
			receivedTags = r.Header.Get("Tags")
			rawBody, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			receivedBody = string(rawBody)
			return okResponse(), nil
		}),
	}

	msg := Message{Title: "t", Body: "hello", Tags: []string{"a", "b"}}
	if err := Send(ctx, client, "http://example.com/enabler", msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got, want := receivedMethod, http.MethodPost; got != want {
		t.Fatalf("method = %q; want %q", got, want)
	}
	if got, want := receivedPath, "/enabler"; got != want {
		t.Fatalf("path = %q; want %q", got, want)
	}
	if got, want := receivedTitle, "t"; got != want {
		t.Fatalf("title = %q; want %q", got, want)
	}
	if got, want := receivedTags, "a,b"; got != want {
		t.Fatalf("tags = %q; want %q", got, want)
	}
	if got, want := receivedBody, "hello"; got != want {
		t.Fatalf("body = %q; want %q", got, want)
	}
}

func TestSendReturnsErrorForServerError(t *testing.T) {
	ctx := context.Background()

	client := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader("server failure")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	err := Send(ctx, client, "http://example.com/enabler", Message{Body: "x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ntfy notification failed") {
		t.Fatalf("error = %q; want to contain %q", err, "ntfy notification failed")
	}
}

func TestSendDisallowsMissingEndpoint(t *testing.T) {
	err := Send(context.Background(), http.DefaultClient, "", Message{Body: "x"})
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestNotifierReportsFailure(t *testing.T) {
	var body string
	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(r.Body)
			body = string(raw)
			return okResponse(), nil
		}),
	}

	n := NewNotifier(client, "http://example.com/enabler")
	n.ActivationSettled(inject.Outcome{
		TabID:  "tab-1",
		Family: types.FamilyModern,
		Result: types.ActivationResult{Success: false, Error: "hook not found"},
	})
	n.Wait()

	if want := "Injection failed in tab tab-1: hook not found"; body != want {
		t.Fatalf("body = %q; want %q", body, want)
	}
}
