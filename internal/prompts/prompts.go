// Package prompts resolves the system prompts for text and image extraction.
// Precedence: inline config value, then a YAML prompt file, then the built-in
// default.
package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultText = `You are a personal financial advisor. Extract financial transactions ` +
	`from the user's message and answer briefly and helpfully. Always respond with a JSON object ` +
	`containing "transactions" (an array, empty if none were found) and "answer" (a short reply ` +
	`to the user in their language). Dates use YYYY-MM-DD; amounts are positive numbers; ` +
	`"type" is income or expense; "frequency" is daily, periodic or one_time.`

const defaultImage = `You are a personal financial advisor. The user sends a photo of a receipt ` +
	`or a payment screenshot. Extract every transaction visible in the image. Always respond with ` +
	`a JSON object containing "transactions" (an array, empty if none were found) and "answer" ` +
	`(a short reply to the user). Dates use YYYY-MM-DD; amounts are positive numbers; ` +
	`"type" is income or expense; "frequency" is daily, periodic or one_time.`

// Prompts holds the resolved system prompts.
type Prompts struct {
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
}

// Load resolves prompts from inline values and an optional YAML file with
// "text" and "image" keys. Empty results fall back to the defaults.
func Load(inlineText, inlineImage, filePath string) (Prompts, error) {
	p := Prompts{
		Text:  strings.TrimSpace(inlineText),
		Image: strings.TrimSpace(inlineImage),
	}

	if filePath = strings.TrimSpace(filePath); filePath != "" && (p.Text == "" || p.Image == "") {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return Prompts{}, fmt.Errorf("read prompts file: %w", err)
		}
		var fromFile Prompts
		if err := yaml.Unmarshal(raw, &fromFile); err != nil {
			return Prompts{}, fmt.Errorf("parse prompts file %s: %w", filePath, err)
		}
		if p.Text == "" {
			p.Text = strings.TrimSpace(fromFile.Text)
		}
		if p.Image == "" {
			p.Image = strings.TrimSpace(fromFile.Image)
		}
	}

	if p.Text == "" {
		p.Text = defaultText
	}
	if p.Image == "" {
		p.Image = defaultImage
	}
	return p, nil
}
