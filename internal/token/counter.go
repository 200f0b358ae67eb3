package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tokenization scheme used when none is configured.
// cl100k_base matches most current embedding models.
const DefaultEncoding = "cl100k_base"

// Counter counts and codes tokens using a fixed tiktoken encoding.
// All chunk sizing decisions in the system go through one Counter so
// that budgets are measured consistently.
type Counter struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewCounter returns a counter for the named encoding. An empty name
// selects DefaultEncoding.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("token: get encoding %q: %w", encoding, err)
	}
	return &Counter{name: encoding, enc: enc}, nil
}

// Name returns the encoding name in use.
func (c *Counter) Name() string { return c.name }

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Encode returns the token ids for text.
func (c *Counter) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

// Decode turns token ids back into text.
func (c *Counter) Decode(ids []int) string {
	return c.enc.Decode(ids)
}
