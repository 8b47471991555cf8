package transport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ChunkThreshold is the message size (spec.md §4.2) above which stdio
// switches from a single unchunked line to the chunked frame format.
const ChunkThreshold = 60 * 1024

// chunkLineRE matches a chunked frame: "<msgId>:<index>:<total>:<data>".
var chunkLineRE = regexp.MustCompile(`^([A-Za-z0-9_-]+):(\d+):(\d+):(.*)$`)

// chunkSize is the payload size per frame once a message is chunked.
const chunkSize = ChunkThreshold

// encodeLines renders data as the stdio wire lines for one message: a
// single "<json>\n" line if data is small, or a sequence of
// "<msgId>:<i>:<N>:<data>\n" frames otherwise.
func encodeLines(data []byte) []string {
	if len(data) <= ChunkThreshold {
		return []string{string(data)}
	}
	msgID := uuid.NewString()
	var chunks [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	total := len(chunks)
	lines := make([]string, total)
	for i, c := range chunks {
		lines[i] = fmt.Sprintf("%s:%d:%d:%s", msgID, i, total, c)
	}
	return lines
}

// reassembler buffers in-flight chunked messages keyed by message id,
// reassembling each once all of its frames have arrived.
type reassembler struct {
	partial map[string]*partialMessage
}

type partialMessage struct {
	total int
	parts map[int]string
}

func newReassembler() *reassembler {
	return &reassembler{partial: make(map[string]*partialMessage)}
}

// feed processes one inbound line; if it completes a message (chunked or
// not), the assembled payload is returned with ok == true.
func (r *reassembler) feed(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", false
	}
	if !looksChunked(line) {
		if line[0] != '{' && line[0] != '[' {
			// message filter (spec.md §4.2): drop child-process log noise
			// on stdout that isn't a JSON message or a chunk frame.
			return "", false
		}
		return line, true
	}
	m := chunkLineRE.FindStringSubmatch(line)
	if m == nil {
		return line, true
	}
	id := m[1]
	idx, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	data := m[4]

	pm, ok := r.partial[id]
	if !ok {
		pm = &partialMessage{total: total, parts: make(map[int]string, total)}
		r.partial[id] = pm
	}
	pm.parts[idx] = data
	if len(pm.parts) < pm.total {
		return "", false
	}
	delete(r.partial, id)
	var sb strings.Builder
	for i := 0; i < pm.total; i++ {
		sb.WriteString(pm.parts[i])
	}
	return sb.String(), true
}

// looksChunked distinguishes a chunk frame from a plain JSON line: plain
// lines always start with '{' or '[' per the message filter (spec.md
// §4.2); chunk ids never do.
func looksChunked(line string) bool {
	if len(line) == 0 {
		return false
	}
	c := line[0]
	if c == '{' || c == '[' {
		return false
	}
	return chunkLineRE.MatchString(line)
}
