// Package sse demultiplexes a text/event-stream body into a lazy,
// finite sequence of typed generation events (§4.5).
package sse

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/tidwall/gjson"

	"github.com/eugener/genai/internal/core"
)

const maxLineSize = 64 * 1024

// Decoder reads SSE lines from a response body and yields each `data:`
// field's payload as a raw frame. It skips keep-alive/comment lines and
// blank framing lines, matching the newline-framed format in the
// glossary. The sequence is finite and not restartable.
type Decoder struct {
	endpoint string
	scanner  *bufio.Scanner
	body     io.ReadCloser
}

// NewDecoder wraps body, tagging errors with endpoint for diagnostics.
// The caller retains ownership of body and must Close the Decoder.
func NewDecoder(endpoint string, body io.ReadCloser) *Decoder {
	s := bufio.NewScanner(body)
	s.Buffer(make([]byte, 4096), maxLineSize)
	return &Decoder{endpoint: endpoint, scanner: s, body: body}
}

// Close releases the underlying response body.
func (d *Decoder) Close() error { return d.body.Close() }

// Next returns the next frame's raw JSON payload. ok is false once the
// stream is exhausted; err is non-nil only on a read failure, never on
// plain EOF.
func (d *Decoder) Next() (frame []byte, ok bool, err error) {
	for d.scanner.Scan() {
		event, data, parsed := parseLine(d.scanner.Text())
		if !parsed || event != "" {
			continue
		}
		return []byte(data), true, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, false, &core.TransportError{Endpoint: d.endpoint, Cause: err}
	}
	return nil, false, nil
}

// parseLine parses a single SSE line into its event type and data payload.
// It returns ok=false for empty lines, comments, and fields it doesn't
// recognize.
func parseLine(line string) (event, data string, ok bool) {
	if line == "" || line[0] == ':' {
		return "", "", false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		key, value := line[:i], line[i+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
		switch key {
		case "event":
			return value, "", true
		case "data":
			return "", value, true
		default:
			return "", "", false
		}
	}
	return "", "", false
}

// hasPayload cheaply peeks a frame for the two fields that ever produce
// caller-visible output, so empty keep-alive-ish frames skip full decode.
func hasPayload(frame []byte) bool {
	return gjson.GetBytes(frame, "moderation").Exists() || gjson.GetBytes(frame, "results").Exists()
}

// ProjectGenerate decodes one /generate stream frame and projects it onto
// caller-visible results per §4.5: a standalone moderation-only result
// first (if event.moderation is present), then each entry of
// event.results. A frame with neither produces no output.
func ProjectGenerate(endpoint string, frame []byte) ([]core.GenerateStreamResult, error) {
	if !hasPayload(frame) {
		return nil, nil
	}
	var event core.ApiGenerateStreamResponse
	if err := json.Unmarshal(frame, &event); err != nil {
		return nil, &core.DecodeError{Endpoint: endpoint, Frame: string(frame), Cause: err}
	}
	return project(event.Moderation, event.Results), nil
}

// ProjectChat decodes one /chat stream frame the same way, additionally
// surfacing the conversation id the server may echo.
func ProjectChat(endpoint string, frame []byte) (string, []core.GenerateStreamResult, error) {
	if !hasPayload(frame) {
		var bare struct {
			ConversationID string `json:"conversation_id"`
		}
		_ = json.Unmarshal(frame, &bare)
		return bare.ConversationID, nil, nil
	}
	var event core.ChatStreamResponse
	if err := json.Unmarshal(frame, &event); err != nil {
		return "", nil, &core.DecodeError{Endpoint: endpoint, Frame: string(frame), Cause: err}
	}
	return event.ConversationID, project(event.Moderation, event.Results), nil
}

func project(moderation *core.Moderation, results []core.GenerateStreamResult) []core.GenerateStreamResult {
	var out []core.GenerateStreamResult
	if moderation != nil {
		out = append(out, core.GenerateStreamResult{Moderation: moderation})
	}
	out = append(out, results...)
	return out
}
