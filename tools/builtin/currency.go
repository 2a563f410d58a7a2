package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CurrencyTool converts between currencies via exchangerate-api.com.
// Operational failures (missing key, timeout, API error) come back as user
// strings rather than errors, so the agent relays them instead of aborting.
type CurrencyTool struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	HTTP    *http.Client
}

func NewCurrencyTool(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *CurrencyTool {
	if baseURL == "" {
		baseURL = "https://v6.exchangerate-api.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CurrencyTool{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
		Logger:  logger,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (t *CurrencyTool) Name() string { return "currency_convert" }

func (t *CurrencyTool) Description() string {
	return "Convert an amount from one currency to another (e.g. USD, EUR, RUB)."
}

func (t *CurrencyTool) ParameterSchema() string {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount": map[string]any{"type": "number", "description": "Amount to convert."},
			"from":   map[string]any{"type": "string", "description": "Source currency code."},
			"to":     map[string]any{"type": "string", "description": "Target currency code."},
		},
		"required": []string{"amount", "from", "to"},
	}
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

type pairResponse struct {
	Result           string  `json:"result"`
	ErrorType        string  `json:"error-type"`
	ConversionRate   float64 `json:"conversion_rate"`
	ConversionResult float64 `json:"conversion_result"`
}

func (t *CurrencyTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	amount := parseFloatDefault(params["amount"], 0)
	from := strings.ToUpper(strings.TrimSpace(stringParam(params, "from")))
	to := strings.ToUpper(strings.TrimSpace(stringParam(params, "to")))
	if amount <= 0 || from == "" || to == "" {
		return "", fmt.Errorf("required params: amount (> 0), from, to")
	}

	if t.APIKey == "" {
		return "Error: the exchangerate-api.com API key is not configured. Set tools.currency.api_key.", nil
	}

	reqURL := fmt.Sprintf("%s/v6/%s/pair/%s/%s/%v",
		t.BaseURL, url.PathEscape(t.APIKey), url.PathEscape(from), url.PathEscape(to), amount)

	reqCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Timeout") {
			t.Logger.Error("currency_convert_timeout")
			return "Error: the currency conversion service timed out.", nil
		}
		t.Logger.Error("currency_convert_error", "error", err.Error())
		return fmt.Sprintf("Error contacting the currency conversion API: %v", err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error contacting the currency conversion API: %v", err), nil
	}

	var out pairResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Sprintf("Error contacting the currency conversion API: %v", err), nil
	}
	if out.Result != "success" {
		errType := out.ErrorType
		if errType == "" {
			errType = "unknown"
		}
		return fmt.Sprintf("Currency conversion failed: %s", errType), nil
	}

	t.Logger.Info("currency_convert_ok", "from", from, "to", to, "amount", amount)
	return fmt.Sprintf("%v %s = %.2f %s\nRate: 1 %s = %.4f %s",
		amount, from, out.ConversionResult, to, from, out.ConversionRate, to), nil
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}
