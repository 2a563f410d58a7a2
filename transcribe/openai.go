package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient calls /v1/audio/transcriptions on an OpenAI-compatible
// endpoint. It is constructed explicitly and passed to whoever needs it;
// there is no lazily initialized shared instance.
type OpenAIClient struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	HTTP     *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model, language string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "whisper-1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Model:    model,
		Language: language,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	// verbose_json exposes per-segment confidence; avg_logprob of the first
	// segment stands in for language probability on endpoints that omit it.
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
	LanguageProbability float64 `json:"language_probability"`
	Error               *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (Transcript, error) {
	if filename == "" {
		filename = "voice.ogg"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Transcript{}, err
	}
	if _, err := fw.Write(audio); err != nil {
		return Transcript{}, err
	}
	_ = mw.WriteField("model", c.Model)
	_ = mw.WriteField("response_format", "verbose_json")
	if c.Language != "" {
		_ = mw.WriteField("language", c.Language)
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return Transcript{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Transcript{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, err
	}

	var out transcriptionResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return Transcript{}, fmt.Errorf("transcription http %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return Transcript{}, fmt.Errorf("transcription: decode response: %w", decodeErr)
	}

	prob := out.LanguageProbability
	if prob == 0 && len(out.Segments) > 0 {
		prob = logprobToProb(out.Segments[0].AvgLogprob)
	}

	return Transcript{
		Text:         strings.TrimSpace(out.Text),
		Language:     out.Language,
		LanguageProb: prob,
	}, nil
}

func logprobToProb(lp float64) float64 {
	if lp >= 0 {
		return 1
	}
	p := math.Exp(lp)
	if p > 1 {
		return 1
	}
	return p
}
