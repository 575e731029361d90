// Package streaming implements spec §4.8's incremental SSE reframing
// between the openai and claude streaming wire shapes. Grounded on the
// teacher's `common/helper/scanner.go` buffer-sizing convention for
// handling arbitrarily large tokens, and on the pack's
// `golang.org/x/sync/errgroup` usage
// (`_examples/minhnhatt71-crystaldolphin/cmd/gateway.go`) for
// cancellable, context-aware background work — generalized here from
// "supervise N long-running subsystems" to "run one cancellable
// streaming pump per request".
package streaming

import "strings"

// Frame is one decoded SSE frame: `event:` lines (optional) and the
// concatenation of every `data:` line, joined with "\n" per the SSE spec.
type Frame struct {
	Event string
	Data  string
}

// Parser incrementally decodes SSE frames from a byte stream, per spec
// §4.8: normalize "\r\n" to "\n", then split on the "\n\n" frame
// boundary. Its zero value is ready to use.
type Parser struct {
	buf strings.Builder
}

// Feed appends chunk to the internal buffer and returns every complete
// frame it now contains, leaving any trailing partial frame buffered
// for the next call.
func (p *Parser) Feed(chunk []byte) []Frame {
	p.buf.Write(normalizeNewlines(chunk))

	raw := p.buf.String()
	var frames []Frame
	for {
		idx := strings.Index(raw, "\n\n")
		if idx < 0 {
			break
		}
		frames = append(frames, parseFrame(raw[:idx]))
		raw = raw[idx+2:]
	}
	p.buf.Reset()
	p.buf.WriteString(raw)
	return frames
}

func normalizeNewlines(b []byte) []byte {
	if !strings.ContainsRune(string(b), '\r') {
		return b
	}
	return []byte(strings.ReplaceAll(string(b), "\r\n", "\n"))
}

// parseFrame reads `event:` and `data:` lines out of one raw frame
// (multiple `data:` lines are concatenated with "\n").
func parseFrame(raw string) Frame {
	var f Frame
	var dataLines []string
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	f.Data = strings.Join(dataLines, "\n")
	return f
}
