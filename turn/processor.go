// Package turn drives one inbound user event through context assembly,
// structured extraction, ledger update and reply rendering.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olegkh/finassist/extract"
	"github.com/olegkh/finassist/ledger"
	"github.com/olegkh/finassist/providers/openai"
	"github.com/olegkh/finassist/transcribe"
)

type Source string

const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
	SourceImage Source = "image"
)

// Input is one inbound turn. Text carries the user text for text turns;
// voice turns carry Audio and image turns carry ImageBase64.
type Input struct {
	ConversationID string
	Source         Source
	Text           string
	Audio          []byte
	AudioFilename  string
	ImageBase64    string
}

// MaxMessageLen is the inbound text ceiling in characters, not bytes; longer
// messages never reach the model.
const MaxMessageLen = 4000

const imageHistoryEntry = `[image: receipt/screenshot]`
const imageInstruction = "Extract the transactions from this image"

// Fixed user-facing messages for the failure categories.
const (
	replyProviderError = "Sorry, the LLM provider returned an error. Please try again in a few seconds."
	replyVisionError   = "Sorry, the configured model does not accept images.\n\n" +
		"Use a vision model, for example:\n" +
		"• meta-llama/llama-3.2-11b-vision-instruct (OpenRouter)\n" +
		"• llama3.2-vision (Ollama)\n\n" +
		"Set model_image in the config to one of these."
	replyGenericError = "Something went wrong while processing your message. " +
		"Try again, or use /start to begin a new conversation."
	replyNoSpeech = "Could not recognize any speech in the voice message."
)

// Extractor is the structured-response client the processor calls.
type Extractor interface {
	Extract(ctx context.Context, history []ledger.Message, content extract.Content) (*extract.TurnResponse, error)
}

type Processor struct {
	store        *ledger.Store
	text         Extractor
	image        Extractor
	transcriber  transcribe.Transcriber
	systemPrompt string
	logger       *slog.Logger

	// Turns for the same conversation id must not interleave: two quick
	// messages racing each other would corrupt history and ledger ordering.
	// One mutex per conversation id, held for the whole turn.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type Options struct {
	Store        *ledger.Store
	Text         Extractor
	Image        Extractor
	Transcriber  transcribe.Transcriber
	SystemPrompt string
	Logger       *slog.Logger
}

func NewProcessor(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:        opts.Store,
		text:         opts.Text,
		image:        opts.Image,
		transcriber:  opts.Transcriber,
		systemPrompt: opts.SystemPrompt,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

// WithConversationLock runs fn under the same lock Process takes for the
// conversation. Command handlers that reset or read conversation state must
// use it, or a reset racing an in-flight turn could land that turn's updates
// into the fresh conversation.
func (p *Processor) WithConversationLock(id string, fn func()) {
	mu := p.conversationLock(id)
	mu.Lock()
	defer mu.Unlock()
	fn()
}

func (p *Processor) conversationLock(id string) *sync.Mutex {
	p.locksMu.Lock()
	defer p.locksMu.Unlock()
	mu, ok := p.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		p.locks[id] = mu
	}
	return mu
}

// Process runs one turn end to end and always returns the outbound reply
// text. Failures of any category become a fixed apology; the store is never
// mutated on a failed turn.
func (p *Processor) Process(ctx context.Context, in Input) (reply string) {
	turnID := uuid.NewString()
	logger := p.logger.With("turn_id", turnID, "conversation_id", in.ConversationID, "source", string(in.Source))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("turn_panic", "panic", fmt.Sprint(r))
			reply = replyGenericError
		}
	}()

	mu := p.conversationLock(in.ConversationID)
	mu.Lock()
	defer mu.Unlock()

	switch in.Source {
	case SourceVoice:
		return p.processVoice(ctx, logger, in)
	case SourceImage:
		return p.processImage(ctx, logger, in)
	default:
		return p.processText(ctx, logger, in)
	}
}

func (p *Processor) processText(ctx context.Context, logger *slog.Logger, in Input) string {
	if n := utf8.RuneCountInString(in.Text); n > MaxMessageLen {
		logger.Warn("turn_text_too_long", "chars", n)
		return fmt.Sprintf("Sorry, your message is too long (%d characters). The maximum is %d characters.",
			n, MaxMessageLen)
	}
	return p.finish(ctx, logger, in.ConversationID, in.Text, extract.Content{Text: in.Text}, p.text, "")
}

func (p *Processor) processVoice(ctx context.Context, logger *slog.Logger, in Input) string {
	if p.transcriber == nil {
		logger.Error("turn_no_transcriber")
		return replyGenericError
	}
	tr, err := p.transcriber.Transcribe(ctx, in.Audio, in.AudioFilename)
	if err != nil {
		logger.Error("turn_transcription_error", "error", err.Error())
		return replyGenericError
	}
	if tr.Text == "" {
		logger.Warn("turn_transcription_empty")
		return replyNoSpeech
	}
	logger.Info("turn_transcribed", "chars", len(tr.Text), "language", tr.Language, "language_prob", tr.LanguageProb)

	prefix := fmt.Sprintf("🎤 Recognized: %q\n\n", tr.Text)
	return p.finish(ctx, logger, in.ConversationID, tr.Text, extract.Content{Text: tr.Text}, p.text, prefix)
}

func (p *Processor) processImage(ctx context.Context, logger *slog.Logger, in Input) string {
	content := extract.Content{Text: imageInstruction, ImageBase64: in.ImageBase64}
	return p.finish(ctx, logger, in.ConversationID, imageHistoryEntry, content, p.image, "")
}

// finish covers CONTEXT_ASSEMBLED through REPLY_SENT: one extraction call,
// then ledger and history updates, then the rendered reply.
func (p *Processor) finish(ctx context.Context, logger *slog.Logger, conversationID, historyUserText string, content extract.Content, ex Extractor, prefix string) string {
	p.store.GetOrCreate(conversationID, p.systemPrompt)
	history := p.store.History(conversationID)

	resp, err := ex.Extract(ctx, history, content)
	if err != nil {
		return p.failureReply(logger, err, content.ImageBase64 != "")
	}

	p.store.AppendTransactions(conversationID, resp.Transactions)
	p.store.AppendTurn(conversationID, historyUserText, resp.Answer)
	balance := p.store.Balance(conversationID)

	logger.Info("turn_done", "transactions", len(resp.Transactions), "balance", balance)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(resp.Answer)
	if n := len(resp.Transactions); n > 0 {
		plural := ""
		if n > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "\n\n✅ Found and saved %d transaction%s", n, plural)
	} else {
		b.WriteString("\n\nℹ️ No transactions found")
	}
	fmt.Fprintf(&b, "\n💵 Balance: %s", ledger.FormatAmount(balance))
	return b.String()
}

func (p *Processor) failureReply(logger *slog.Logger, err error, isImage bool) string {
	var terr *extract.TransportError
	if errors.As(err, &terr) {
		var aerr *openai.APIError
		if isImage && errors.As(err, &aerr) && (aerr.NotFound() || mentionsImageInput(aerr.Message)) {
			logger.Error("turn_model_incompatible", "error", aerr.Error())
			return replyVisionError
		}
		logger.Error("turn_transport_error", "error", terr.Error())
		return replyProviderError
	}

	var merr *extract.MalformedResponseError
	var verr *ledger.ValidationError
	switch {
	case errors.Is(err, extract.ErrEmptyResponse):
		logger.Error("turn_empty_response")
	case errors.As(err, &merr):
		logger.Error("turn_malformed_response", "head", merr.Head, "tail", merr.Tail)
	case errors.As(err, &verr):
		logger.Error("turn_validation_error", "field", verr.Field, "reason", verr.Reason)
	default:
		logger.Error("turn_error", "error", err.Error())
	}
	return replyGenericError
}

func mentionsImageInput(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "image input") || strings.Contains(lower, "not found")
}
