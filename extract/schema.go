package extract

import "github.com/olegkh/finassist/llm"

const schemaName = "transaction_response"

// ResponseSchema is the JSON-schema constraint for one extraction turn:
// a list of transactions (possibly empty) plus a user-facing answer.
func ResponseSchema() *llm.Schema {
	transaction := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date": map[string]any{"type": "string", "format": "date"},
			"time": map[string]any{"type": []string{"string", "null"}},
			"type": map[string]any{"type": "string", "enum": []string{"income", "expense"}},
			"amount": map[string]any{
				"type":             "number",
				"exclusiveMinimum": 0,
			},
			"frequency":   map[string]any{"type": "string", "enum": []string{"daily", "periodic", "one_time"}},
			"category":    map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		},
		"required":             []string{"date", "time", "type", "amount", "frequency", "category", "description"},
		"additionalProperties": false,
	}

	return &llm.Schema{
		Name:   schemaName,
		Strict: true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"transactions": map[string]any{
					"type":  "array",
					"items": transaction,
				},
				"answer": map[string]any{"type": "string"},
			},
			"required":             []string{"transactions", "answer"},
			"additionalProperties": false,
		},
	}
}
