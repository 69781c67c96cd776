package webclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
)

func TestNetHTTPClientGetReturnsBodyAndStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(logging.NewStdoutLogger("test"), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}

	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "ok" {
		t.Fatalf("expected body \"ok\", got %q", resp.Body)
	}
	if resp.Headers.Get("X-Test") != "1" {
		t.Fatalf("expected X-Test header to be forwarded")
	}
}

func TestNetHTTPClientDoRejectsNilRequest(t *testing.T) {
	client, err := webclient.NewNetHTTPClient(logging.NewStdoutLogger("test"), nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	if _, err := client.Do(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for a nil request")
	}
}

func TestNetHTTPClientForwardsRequestHeaders(t *testing.T) {
	var seen string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(logging.NewStdoutLogger("test"), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}

	req := &webclient.Request{
		Method:  "GET",
		URL:     ts.URL,
		Headers: http.Header{"Authorization": []string{"Bearer token"}},
	}
	if _, err := client.Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if seen != "Bearer token" {
		t.Fatalf("expected the Authorization header to reach the server, got %q", seen)
	}
}
