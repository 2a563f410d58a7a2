package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getUpdates" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"chat":{"id":42},"text":"hi"}},
			{"update_id":101,"message":{"message_id":2,"chat":{"id":42},"text":"there"}}
		]}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "test-token")
	updates, next, err := api.GetUpdates(context.Background(), 99, time.Second)
	if err != nil {
		t.Fatalf("getUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].Message.Text != "hi" || updates[0].Message.Chat.ID != 42 {
		t.Errorf("unexpected first update: %+v", updates[0].Message)
	}
	if next != 102 {
		t.Errorf("next offset = %d, want 102", next)
	}
	if captured["offset"] != float64(99) {
		t.Errorf("request offset = %v, want 99", captured["offset"])
	}
}

func TestGetUpdatesKeepsOffsetOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	_, next, err := api.GetUpdates(context.Background(), 55, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if next != 55 {
		t.Errorf("offset after error = %d, want 55", next)
	}
}

func TestSendMessageFillsEmptyText(t *testing.T) {
	var captured sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	if err := api.SendMessage(context.Background(), 42, "   "); err != nil {
		t.Fatalf("sendMessage: %v", err)
	}
	if captured.Text != "(empty)" {
		t.Errorf("text = %q, want (empty)", captured.Text)
	}
	if !captured.DisableWebPagePreview {
		t.Error("expected web page preview disabled")
	}
}

func TestSendMessageChunked(t *testing.T) {
	var chunks []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		chunks = append(chunks, req.Text)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	long := strings.Repeat("a", 3500) + strings.Repeat("b", 100)
	if err := api.SendMessageChunked(context.Background(), 42, long); err != nil {
		t.Fatalf("sendMessageChunked: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 3500 || chunks[1] != strings.Repeat("b", 100) {
		t.Errorf("unexpected chunking: %d / %d", len(chunks[0]), len(chunks[1]))
	}
}

func TestSendMessageChunkedKeepsRunesIntact(t *testing.T) {
	var chunks []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		chunks = append(chunks, req.Text)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	// The odd leading byte puts every two-byte rune off the 3500 cut point.
	long := "a" + strings.Repeat("б", 4000)
	if err := api.SendMessageChunked(context.Background(), 42, long); err != nil {
		t.Fatalf("sendMessageChunked: %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
		if strings.ContainsRune(c, utf8.RuneError) {
			t.Errorf("chunk %d contains a replacement character", i)
		}
	}
	if strings.Join(chunks, "") != long {
		t.Error("chunks do not reassemble the original text")
	}
}

func TestCallReportsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	_, err := api.GetMe(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("expected ok=false error, got %v", err)
	}
}

func TestGetFileRequiresPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"file_id":"abc"}}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	if _, err := api.GetFile(context.Background(), "abc"); err == nil {
		t.Fatal("expected error for missing file_path")
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/bott/voice/file_1.oga" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	raw, err := api.DownloadFile(context.Background(), "voice/file_1.oga", 1024)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(raw) != "audio-bytes" {
		t.Errorf("content = %q", raw)
	}
}

func TestDownloadFileEnforcesMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	if _, err := api.DownloadFile(context.Background(), "big.bin", 50); err == nil {
		t.Fatal("expected size limit error")
	}
}
