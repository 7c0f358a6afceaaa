package thinking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFramingVariants(t *testing.T) {
	payload := `{"type":"stage","stage":"problem analysis","content":"ok","progress":20}`
	want := Event{Type: EventStage, Stage: "problem analysis", Content: "ok", Progress: 20}

	variants := map[string]string{
		"canonical sse": "data: " + payload + "\n",
		"no space":      "data:" + payload + "\n",
		"bare json":     payload + "\n",
	}

	for name, line := range variants {
		t.Run(name, func(t *testing.T) {
			var dec FrameDecoder
			events := dec.Decode([]byte(line))
			require.Len(t, events, 1)
			assert.Equal(t, want, events[0])
		})
	}
}

func TestDecodeChunkBoundaryIndependence(t *testing.T) {
	stream := "data: {\"type\":\"thinking\",\"thinking\":\"a\",\"progress\":10}\n" +
		"data:{\"type\":\"stage\",\"stage\":\"s1\",\"content\":\"c1\",\"progress\":50}\n" +
		"{\"type\":\"stage\",\"stage\":\"s2\",\"content\":\"c2\",\"progress\":100}\n" +
		"data: {\"type\":\"done\"}\n"

	var whole FrameDecoder
	want := whole.Decode([]byte(stream))
	want = append(want, whole.Flush()...)
	require.Len(t, want, 4)

	// Every two-chunk partition of the byte stream.
	for cut := 1; cut < len(stream); cut++ {
		var dec FrameDecoder
		got := dec.Decode([]byte(stream[:cut]))
		got = append(got, dec.Decode([]byte(stream[cut:]))...)
		got = append(got, dec.Flush()...)
		assert.Equal(t, want, got, "partition at byte %d", cut)
	}

	// Byte-at-a-time delivery.
	var dec FrameDecoder
	var got []Event
	for i := 0; i < len(stream); i++ {
		got = append(got, dec.Decode([]byte{stream[i]})...)
	}
	got = append(got, dec.Flush()...)
	assert.Equal(t, want, got)
}

func TestDecodeMalformedLineDropped(t *testing.T) {
	stream := "data: {\"type\":\"thinking\",\"thinking\":\"a\"}\n" +
		"not json at all\n" +
		"data: {\"type\":\"done\"}\n"

	var dec FrameDecoder
	events := dec.Decode([]byte(stream))
	require.Len(t, events, 2)
	assert.Equal(t, EventThinking, events[0].Type)
	assert.Equal(t, EventDone, events[1].Type)
}

func TestDecodeSkipsEventLinesAndBlanks(t *testing.T) {
	stream := "event: message\n" +
		"\n" +
		"data: \n" +
		"data:{\"type\":\"done\"}\n" +
		"\r\n"

	var dec FrameDecoder
	events := dec.Decode([]byte(stream))
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
}

func TestDecodeMalformedDataPayloadDropped(t *testing.T) {
	var dec FrameDecoder
	events := dec.Decode([]byte("data: {broken\ndata: {\"type\":\"done\"}\n"))
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
}

func TestDecodeCRLFLines(t *testing.T) {
	var dec FrameDecoder
	events := dec.Decode([]byte("data: {\"type\":\"stage\",\"stage\":\"s\"}\r\ndata: {\"type\":\"done\"}\r\n"))
	require.Len(t, events, 2)
	assert.Equal(t, "s", events[0].Stage)
}

func TestFlushDrainsTrailingLine(t *testing.T) {
	var dec FrameDecoder
	events := dec.Decode([]byte(`data: {"type":"done"}`))
	assert.Empty(t, events)

	events = dec.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
	assert.Empty(t, dec.Flush())
}

func TestDecodeOrderPreserved(t *testing.T) {
	var stream string
	for i := 0; i < 10; i++ {
		stream += fmt.Sprintf("data: {\"type\":\"stage\",\"stage\":\"s%d\"}\n", i)
	}

	var dec FrameDecoder
	events := dec.Decode([]byte(stream))
	require.Len(t, events, 10)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("s%d", i), ev.Stage)
	}
}
