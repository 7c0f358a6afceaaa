package thinking

import (
	"encoding/json"
	"log"
	"strings"
)

// FrameDecoder turns raw transport chunks into decoded events. The server
// applies its line framing inconsistently, so three variants are accepted,
// classified per line in priority order:
//
//	"data: {json}"   canonical SSE
//	"data:{json}"    SSE without the space after the colon
//	"{json}"         bare JSON on lines not prefixed with "event:"
//
// Chunks may split lines at arbitrary byte boundaries; a trailing
// unterminated line is buffered and prefixed to the next chunk. Lines whose
// payload fails to parse are dropped and decoding continues: a malformed
// frame must never abort the session.
//
// The zero value is ready to use. A FrameDecoder is not safe for concurrent
// use; events are emitted in the exact order their lines were encountered.
type FrameDecoder struct {
	partial string
}

// Decode consumes one chunk and returns the events decoded from every
// complete line it contains.
func (d *FrameDecoder) Decode(chunk []byte) []Event {
	data := d.partial + string(chunk)
	lines := strings.Split(data, "\n")
	d.partial = lines[len(lines)-1]
	return decodeLines(lines[:len(lines)-1])
}

// Flush drains the buffered trailing line, if any. Call it once at end of
// stream so a final frame without a newline is not lost.
func (d *FrameDecoder) Flush() []Event {
	if d.partial == "" {
		return nil
	}
	line := d.partial
	d.partial = ""
	return decodeLines([]string{line})
}

func decodeLines(lines []string) []Event {
	var events []Event
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		var payload string
		switch {
		case strings.HasPrefix(line, "data: "):
			payload = line[len("data: "):]
		case strings.HasPrefix(line, "data:"):
			payload = line[len("data:"):]
		case strings.HasPrefix(line, "event:"):
			// SSE event-name lines carry no payload we use.
			continue
		default:
			payload = line
		}

		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Non-JSON noise on the stream; drop the line and keep going.
			log.Printf("frame decoder: dropping unparseable line (%d bytes)", len(line))
			continue
		}
		events = append(events, ev)
	}
	return events
}
