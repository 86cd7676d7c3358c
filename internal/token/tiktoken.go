package token

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// cl100kEncoding is the encoding used for accurate counting. It matches
// GPT-3.5/4 tokenization and is close enough for Claude-family budgets.
const cl100kEncoding = "cl100k_base"

// Tiktoken counts tokens with the cl100k_base BPE encoding. Encoding
// initialization downloads/loads vocabulary data once; if it fails, the
// counter degrades to the character heuristic rather than erroring on
// every call.
type Tiktoken struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
	fallback Heuristic
}

// NewTiktoken creates a lazy cl100k_base counter.
func NewTiktoken() *Tiktoken {
	return &Tiktoken{}
}

// Count implements Counter.
func (t *Tiktoken) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(cl100kEncoding)
		if err != nil {
			slog.Warn("tiktoken_init_failed",
				slog.String("encoding", cl100kEncoding),
				slog.String("error", err.Error()))
			return
		}
		t.encoding = enc
	})
	if t.encoding == nil {
		return t.fallback.Count(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}
