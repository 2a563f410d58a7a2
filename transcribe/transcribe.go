// Package transcribe converts voice audio into text through an
// OpenAI-compatible transcription endpoint.
package transcribe

import "context"

// Transcript is a best-effort transcription plus the detected language and
// its confidence.
type Transcript struct {
	Text         string
	Language     string
	LanguageProb float64
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (Transcript, error)
}
