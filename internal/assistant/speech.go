package assistant

import "context"

// Synthesizer voices a completed reply. The server hands over only a bounded
// prefix of the text; clients doing their own speech synthesis use the Noop
// implementation.
type Synthesizer interface {
	Speak(ctx context.Context, userID, sessionID, text string) error
}

// NoopSynthesizer performs no synthesis. Used when speech happens in the
// browser.
type NoopSynthesizer struct{}

func (NoopSynthesizer) Speak(context.Context, string, string, string) error { return nil }

// speechPrefix bounds text to at most n runes. A multi-byte rune is never
// split.
func speechPrefix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
