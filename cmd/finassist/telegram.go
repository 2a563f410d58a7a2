package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olegkh/finassist/extract"
	"github.com/olegkh/finassist/internal/prompts"
	"github.com/olegkh/finassist/internal/telegram"
	"github.com/olegkh/finassist/ledger"
	"github.com/olegkh/finassist/providers/openai"
	"github.com/olegkh/finassist/transcribe"
	"github.com/olegkh/finassist/turn"
)

const helpText = "Hi! I am a personal financial advisor.\n\n" +
	"I can:\n" +
	"• Extract transactions from your messages, voice notes and receipt photos\n" +
	"• Keep track of income and expenses\n" +
	"• Give advice on managing your money\n\n" +
	"Commands: /balance, /transactions, /start (new conversation, clears history)."

const noTransactionsText = "💵 You have no transactions yet.\n\n" +
	"Send a message with a transaction or a receipt photo to start tracking."

func newTelegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram financial assistant bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or FINASSIST_TELEGRAM_BOT_TOKEN)")
			}

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			p, err := prompts.Load(
				viper.GetString("prompts.text"),
				viper.GetString("prompts.image"),
				viper.GetString("prompts.file"),
			)
			if err != nil {
				return err
			}

			endpoint := strings.TrimSpace(viper.GetString("endpoint"))
			apiKey := viper.GetString("api_key")
			modelText := strings.TrimSpace(viper.GetString("model_text"))
			modelImage := strings.TrimSpace(viper.GetString("model_image"))
			if modelImage == "" {
				modelImage = modelText
			}
			client := openai.New(endpoint, apiKey, viper.GetDuration("llm.request_timeout"))

			whisperEndpoint := strings.TrimSpace(viper.GetString("whisper.endpoint"))
			if whisperEndpoint == "" {
				whisperEndpoint = endpoint
			}
			whisperKey := viper.GetString("whisper.api_key")
			if whisperKey == "" {
				whisperKey = apiKey
			}
			transcriber := transcribe.NewOpenAIClient(
				whisperEndpoint,
				whisperKey,
				viper.GetString("whisper.model"),
				viper.GetString("whisper.language"),
				viper.GetDuration("whisper.request_timeout"),
			)

			store := ledger.NewStore()
			processor := turn.NewProcessor(turn.Options{
				Store:        store,
				Text:         extract.New(client, modelText, p.Text, logger),
				Image:        extract.New(client, modelImage, p.Image, logger),
				Transcriber:  transcriber,
				SystemPrompt: p.Text,
				Logger:       logger,
			})

			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			taskTimeout := flagOrViperDuration(cmd, "telegram-task-timeout", "telegram.task_timeout")
			maxConc := flagOrViperInt(cmd, "telegram-max-concurrency", "telegram.max_concurrency")
			if maxConc <= 0 {
				maxConc = 3
			}
			maxFileBytes := viper.GetInt64("telegram.files.max_bytes")

			api := telegram.NewAPI(&http.Client{Timeout: 60 * time.Second}, viper.GetString("telegram.base_url"), token)

			me, err := api.GetMe(context.Background())
			if err != nil {
				return err
			}

			bot := &telegramBot{
				api:          api,
				store:        store,
				processor:    processor,
				systemPrompt: p.Text,
				logger:       logger,
				taskTimeout:  taskTimeout,
				maxFileBytes: maxFileBytes,
				sem:          make(chan struct{}, maxConc),
			}

			logger.Info("telegram_start",
				"bot_username", me.Username,
				"bot_id", me.ID,
				"model_text", modelText,
				"model_image", modelImage,
				"poll_timeout", pollTimeout.String(),
				"max_concurrency", maxConc,
			)

			var offset int64
			for {
				updates, nextOffset, err := api.GetUpdates(context.Background(), offset, pollTimeout)
				if err != nil {
					logger.Warn("telegram_get_updates_error", "error", err.Error())
					time.Sleep(1 * time.Second)
					continue
				}
				offset = nextOffset

				for _, u := range updates {
					msg := u.Message
					if msg == nil || msg.Chat == nil {
						continue
					}
					bot.sem <- struct{}{}
					go func(msg *telegram.Message) {
						defer func() { <-bot.sem }()
						bot.handleMessage(msg)
					}(msg)
				}
			}
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Duration("telegram-task-timeout", 3*time.Minute, "Per-message processing timeout.")
	cmd.Flags().Int("telegram-max-concurrency", 3, "Max number of updates processed concurrently.")

	return cmd
}

type telegramBot struct {
	api          *telegram.API
	store        *ledger.Store
	processor    *turn.Processor
	systemPrompt string
	logger       *slog.Logger
	taskTimeout  time.Duration
	maxFileBytes int64
	sem          chan struct{}
}

func conversationID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (b *telegramBot) handleMessage(msg *telegram.Message) {
	chatID := msg.Chat.ID
	convID := conversationID(chatID)

	ctx := context.Background()
	var cancel context.CancelFunc
	if b.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.taskTimeout)
		defer cancel()
	}

	// Commands take the same per-conversation lock as turns, so a /start
	// cannot reset state out from under an in-flight turn.
	switch cmdWord(msg.Text) {
	case "/start", "/help":
		b.processor.WithConversationLock(convID, func() {
			b.store.Reset(convID, b.systemPrompt)
		})
		b.logger.Info("telegram_conversation_reset", "chat_id", chatID)
		b.send(ctx, chatID, helpText)
		return
	case "/balance":
		var sum ledger.Summary
		b.processor.WithConversationLock(convID, func() {
			sum = b.store.Summary(convID)
		})
		if sum.Count == 0 {
			b.send(ctx, chatID, noTransactionsText)
			return
		}
		b.send(ctx, chatID, ledger.FormatBalanceReport(sum))
		return
	case "/transactions":
		var txs []ledger.Transaction
		b.processor.WithConversationLock(convID, func() {
			txs = b.store.Transactions(convID)
		})
		if len(txs) == 0 {
			b.send(ctx, chatID, noTransactionsText)
			return
		}
		b.send(ctx, chatID, ledger.FormatTransactionsList(txs))
		return
	}

	in, ok := b.buildInput(ctx, msg)
	if !ok {
		return
	}
	in.ConversationID = convID

	_ = b.api.SendChatAction(ctx, chatID, "typing")
	reply := b.processor.Process(ctx, in)
	b.send(ctx, chatID, reply)
}

// buildInput classifies an update into a turn input, downloading voice and
// image payloads. A false result means the update was already answered.
func (b *telegramBot) buildInput(ctx context.Context, msg *telegram.Message) (turn.Input, bool) {
	chatID := msg.Chat.ID

	switch {
	case msg.Voice != nil || msg.Audio != nil:
		fileID := ""
		filename := "voice.ogg"
		if msg.Voice != nil {
			fileID = msg.Voice.FileID
		} else {
			fileID = msg.Audio.FileID
			if msg.Audio.FileName != "" {
				filename = msg.Audio.FileName
			}
		}
		audio, err := b.downloadFile(ctx, fileID)
		if err != nil {
			b.logger.Error("telegram_voice_download_error", "chat_id", chatID, "error", err.Error())
			b.send(ctx, chatID, "Could not download the voice message. Please try again.")
			return turn.Input{}, false
		}
		return turn.Input{Source: turn.SourceVoice, Audio: audio, AudioFilename: filename}, true

	case len(msg.Photo) > 0 || isImageDocument(msg.Document):
		fileID := ""
		if len(msg.Photo) > 0 {
			// Telegram orders photo sizes ascending; take the largest.
			fileID = msg.Photo[len(msg.Photo)-1].FileID
		} else {
			fileID = msg.Document.FileID
		}
		image, err := b.downloadFile(ctx, fileID)
		if err != nil {
			b.logger.Error("telegram_image_download_error", "chat_id", chatID, "error", err.Error())
			b.send(ctx, chatID, "Could not download the image. Please try again.")
			return turn.Input{}, false
		}
		return turn.Input{
			Source:      turn.SourceImage,
			ImageBase64: base64.StdEncoding.EncodeToString(image),
		}, true

	case strings.TrimSpace(msg.Text) != "":
		return turn.Input{Source: turn.SourceText, Text: msg.Text}, true

	default:
		b.send(ctx, chatID, "Sorry, I only work with text, voice messages and images.")
		return turn.Input{}, false
	}
}

func (b *telegramBot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	f, err := b.api.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	data, err := b.api.DownloadFile(ctx, f.FilePath, b.maxFileBytes)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("empty file %s", path.Base(f.FilePath))
	}
	return data, nil
}

func (b *telegramBot) send(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessageChunked(ctx, chatID, text); err != nil {
		b.logger.Warn("telegram_send_error", "chat_id", chatID, "error", err.Error())
	}
}

func cmdWord(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		text = text[:i]
	}
	// Allow "/cmd@BotName" variants.
	if at := strings.IndexByte(text, '@'); at >= 0 {
		text = text[:at]
	}
	return strings.ToLower(text)
}

func isImageDocument(d *telegram.Document) bool {
	return d != nil && strings.HasPrefix(d.MimeType, "image/")
}
