// Package parser extracts transaction candidates from free-form text with
// a Gemini model. The model output is treated as a best-effort guess; all
// hard decisions (accounts, currencies, trade legs) are made downstream by
// the resolution pipeline.
package parser

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/moneta-bot/moneta"
)

const DefaultModelName = "gemini-2.5-flash"

const systemPrompt = `You are a personal-finance message parser.
The user describes a money event in free text, often in Russian, often
mixing currencies, account nicknames and crypto tickers.

Output STRICT JSON only (no comments, no Markdown, no code fences),
a single object with these fields, omitting any you cannot determine:

- "text": string, the original message
- "direction": "income" | "expense" | "transfer"
- "amount": number
- "currency": string
- "convertedAmount": number
- "convertToCurrency": string
- "accountName": string, the account nickname as written
- "fromAccount": string
- "toAccount": string
- "tradeType": "buy" | "sell"
- "tradeBaseCurrency": string
- "tradeBaseAmount": number
- "tradeQuoteCurrency": string
- "tradeQuoteAmount": number
- "executionPrice": number
- "tradeFeeCurrency": string
- "tradeFeeAmount": number
- "note": string, a short human summary

Never invent numbers the message does not contain. Leave out any
trade field the message does not state; downstream code derives the
missing leg.`

// Parser holds a Gemini client configured for candidate extraction.
type Parser struct {
	client *genai.Client
	model  string
}

// New creates a Parser. Credentials come from the environment, the same
// way the genai client reads them everywhere else.
func New(ctx context.Context, model string) (*Parser, error) {
	if model == "" {
		model = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Parser{client: client, model: model}, nil
}

// Parse sends one message to the model and decodes the candidate.
func (p *Parser) Parse(ctx context.Context, text string) (moneta.Candidate, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: systemPrompt},
				{Text: "Message:\n" + text},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return moneta.Candidate{}, fmt.Errorf("generating candidate: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return moneta.Candidate{}, fmt.Errorf("empty response from model")
	}

	c, err := moneta.DecodeCandidate([]byte(stripFences(raw)))
	if err != nil {
		return moneta.Candidate{}, err
	}
	if c.Text == "" {
		c.Text = text
	}
	return c, nil
}

// stripFences removes Markdown code fences in case the model ignored the
// strict-JSON instruction.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
