package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Completion endpoint
	viper.SetDefault("endpoint", "https://openrouter.ai/api")
	viper.SetDefault("api_key", "")
	viper.SetDefault("model_text", "openai/gpt-4o-mini")
	viper.SetDefault("model_image", "")
	viper.SetDefault("llm.request_timeout", 90*time.Second)

	// System prompts: inline value > yaml file > built-in default.
	viper.SetDefault("prompts.text", "")
	viper.SetDefault("prompts.image", "")
	viper.SetDefault("prompts.file", "")

	// Transcription
	viper.SetDefault("whisper.endpoint", "")
	viper.SetDefault("whisper.api_key", "")
	viper.SetDefault("whisper.model", "whisper-1")
	viper.SetDefault("whisper.language", "ru")
	viper.SetDefault("whisper.request_timeout", 60*time.Second)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.task_timeout", 3*time.Minute)
	viper.SetDefault("telegram.max_concurrency", 3)
	viper.SetDefault("telegram.files.max_bytes", int64(20*1024*1024))

	// Agent tools
	viper.SetDefault("tools.currency.api_key", "")
	viper.SetDefault("tools.currency.base_url", "https://v6.exchangerate-api.com")
	viper.SetDefault("tools.currency.timeout", 10*time.Second)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}
