package transcribe

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribeSendsMultipartForm(t *testing.T) {
	var gotModel, gotFormat, gotLanguage, gotFilename string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotAudio, _ = io.ReadAll(f)
		w.Write([]byte(`{"text":" потратил 500 на такси ","language":"ru","language_probability":0.97}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "whisper-1", "ru", 0)
	tr, err := c.Transcribe(context.Background(), []byte("ogg-data"), "voice.ogg")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if gotModel != "whisper-1" || gotFormat != "verbose_json" || gotLanguage != "ru" {
		t.Errorf("form fields: model=%q format=%q language=%q", gotModel, gotFormat, gotLanguage)
	}
	if gotFilename != "voice.ogg" || string(gotAudio) != "ogg-data" {
		t.Errorf("file part: name=%q content=%q", gotFilename, gotAudio)
	}

	if tr.Text != "потратил 500 на такси" {
		t.Errorf("text not trimmed: %q", tr.Text)
	}
	if tr.Language != "ru" || tr.LanguageProb != 0.97 {
		t.Errorf("language = %q prob = %v", tr.Language, tr.LanguageProb)
	}
}

func TestTranscribeFallsBackToSegmentLogprob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"hi","language":"en","segments":[{"avg_logprob":-0.5},{"avg_logprob":-2.0}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "", "", 0)
	tr, err := c.Transcribe(context.Background(), []byte("a"), "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if want := math.Exp(-0.5); math.Abs(tr.LanguageProb-want) > 1e-9 {
		t.Errorf("prob = %v, want %v", tr.LanguageProb, want)
	}
}

func TestTranscribeDefaultFilename(t *testing.T) {
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		gotFilename = hdr.Filename
		w.Write([]byte(`{"text":"hi","language":"en"}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "", "", 0)
	if _, err := c.Transcribe(context.Background(), []byte("a"), ""); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if gotFilename != "voice.ogg" {
		t.Errorf("filename = %q, want voice.ogg", gotFilename)
	}
}

func TestTranscribeReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"unsupported audio format"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "", "", 0)
	_, err := c.Transcribe(context.Background(), []byte("a"), "x.bin")
	if err == nil || !strings.Contains(err.Error(), "unsupported audio format") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestLogprobToProb(t *testing.T) {
	if got := logprobToProb(0); got != 1 {
		t.Errorf("logprobToProb(0) = %v", got)
	}
	if got := logprobToProb(0.3); got != 1 {
		t.Errorf("positive logprob should clamp to 1, got %v", got)
	}
	if got := logprobToProb(-1); math.Abs(got-math.Exp(-1)) > 1e-9 {
		t.Errorf("logprobToProb(-1) = %v", got)
	}
}
