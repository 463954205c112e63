package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text into token ids and decodes id ranges back.
// Decoding consecutive ranges and concatenating them must reproduce the
// encoded text.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// DefaultEncoding is the BPE used to budget summarization prompts.
const DefaultEncoding = "cl100k_base"

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// NewTiktoken returns a tiktoken tokenizer for encoding. Encodings are
// loaded once per process; the first load fetches the BPE ranks unless
// TIKTOKEN_CACHE_DIR holds them.
func NewTiktoken(encoding string) (Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	encodingsMu.Lock()
	defer encodingsMu.Unlock()
	if enc, ok := encodings[encoding]; ok {
		return &tiktokenizer{enc: enc}, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	encodings[encoding] = enc
	return &tiktokenizer{enc: enc}, nil
}

// Special-token text is encoded as ordinary text so that round-trips hold
// for any transcript.
func (t *tiktokenizer) Encode(text string) []int { return t.enc.EncodeOrdinary(text) }

func (t *tiktokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }
