package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/Laisky/llm-router/common/helper"
	"github.com/Laisky/llm-router/internal/translate"
)

// readChunkSize matches the teacher's scanner's initial buffer size so
// a single Read rarely needs more than one growth cycle.
const readChunkSize = helper.DefaultScannerInitialBufferSize

// Flusher lets the pump push partial writes to the client immediately,
// matching gin.ResponseWriter's http.Flusher without importing gin here.
type Flusher interface {
	Flush()
}

// PumpOpenAIToClaude reads an openai-dialect SSE stream from upstream
// and writes the translated claude-dialect SSE stream to downstream,
// per spec §4.8's openai-upstream -> claude-client direction. Runs
// until upstream is exhausted, ctx is canceled (client disconnect), or
// a read/write error occurs.
func PumpOpenAIToClaude(ctx context.Context, upstream io.Reader, downstream io.Writer, flush Flusher, tr translate.Translator, state *translate.StreamState) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		parser := &Parser{}
		buf := make([]byte, readChunkSize)

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			n, readErr := upstream.Read(buf)
			if n > 0 {
				for _, frame := range parser.Feed(buf[:n]) {
					if frame.Data == "" {
						continue
					}
					if frame.Data == "[DONE]" {
						if err := writeClaudeEvent(downstream, "message_stop", map[string]any{}); err != nil {
							return err
						}
						flush.Flush()
						return nil
					}

					var chunk translate.Body
					if err := json.Unmarshal([]byte(frame.Data), &chunk); err != nil {
						continue
					}
					for _, ev := range tr.TranslateStreamChunk(chunk, state) {
						if err := writeClaudeEvent(downstream, ev.Type, ev.Data); err != nil {
							return err
						}
					}
					flush.Flush()
				}
			}
			if readErr == io.EOF {
				return nil
			}
			if readErr != nil {
				return readErr
			}
		}
	})
	return g.Wait()
}

// PumpClaudeToOpenAI reads a claude-dialect SSE stream from upstream
// and writes the translated openai-dialect SSE stream to downstream,
// per spec §4.8's claude-upstream -> openai-client direction.
func PumpClaudeToOpenAI(ctx context.Context, upstream io.Reader, downstream io.Writer, flush Flusher, tr translate.Translator, state *translate.StreamState) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		parser := &Parser{}
		buf := make([]byte, readChunkSize)

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			n, readErr := upstream.Read(buf)
			if n > 0 {
				for _, frame := range parser.Feed(buf[:n]) {
					if frame.Event == "" || frame.Data == "" {
						continue
					}
					var payload translate.Body
					if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
						continue
					}
					for _, chunk := range tr.ClaudeEventToOpenAIChunks(frame.Event, payload, state) {
						if err := writeOpenAIChunk(downstream, chunk); err != nil {
							return err
						}
					}
					flush.Flush()
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return readErr
			}
		}

		if !state.SawMessageStop {
			if err := writeOpenAIChunk(downstream, "[DONE]"); err != nil {
				return err
			}
			flush.Flush()
		}
		return nil
	})
	return g.Wait()
}

func writeClaudeEvent(w io.Writer, eventType string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(eventType)
	buf.WriteString("\ndata: ")
	buf.Write(raw)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// writeOpenAIChunk writes either the "[DONE]" sentinel string or a JSON
// chunk as an openai-style `data: ...\n\n` frame.
func writeOpenAIChunk(w io.Writer, chunk any) error {
	var buf bytes.Buffer
	buf.WriteString("data: ")
	if s, ok := chunk.(string); ok {
		buf.WriteString(s)
	} else {
		raw, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		buf.Write(raw)
	}
	buf.WriteString("\n\n")
	_, err := w.Write(buf.Bytes())
	return err
}
