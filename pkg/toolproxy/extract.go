package toolproxy

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// ExtractToolCalls pulls tool calls out of raw LLM response text. Two
// forms are recognized (spec.md §4.9):
//
//   - structured: one or more `{"tool_calls":[{"id","type","function":
//     {"name","arguments"}}]}` JSON blocks, optionally fenced in
//     ```json ... ``` markdown.
//   - textual: bare `name(arg=value, arg2=value2)` calls against a
//     known tool name, for models that don't emit the structured form.
//
// Calls missing an id are assigned a generated `call_<uuid>` id.
func ExtractToolCalls(text string, knownNames map[string]bool) []llmadapter.ToolCall {
	calls := extractStructured(text)
	calls = append(calls, extractTextual(text, knownNames)...)
	return BackfillToolCallIDs(calls)
}

// BackfillToolCallIDs assigns a generated `call_<uuid>` id to any call
// missing one. This applies universally (spec.md §3: "the orchestrator
// generates call_<uuid> if the LLM omitted one"), not just to calls
// ExtractToolCalls produced from raw text — an adapter's native
// Response.ToolCalls can just as easily arrive with an empty ID, and
// spec.md §8's invariant ("for all tool calls emitted to providers,
// toolCallId != null") makes no distinction between the two sources.
func BackfillToolCallIDs(calls []llmadapter.ToolCall) []llmadapter.ToolCall {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
	return calls
}

// StripToolCalls removes all recognized tool-call blocks from text,
// leaving the remaining natural-language content.
func StripToolCalls(text string) string {
	res := text
	pos := 0
	for {
		blockStart, blockEnd, _, _, found := nextToolCallBlock(res, pos)
		if !found {
			break
		}
		prefix := strings.TrimRight(res[:blockStart], " \t\n\r")
		suffix := strings.TrimLeft(res[blockEnd:], " \t\n\r")
		switch {
		case prefix == "":
			res = suffix
		case suffix == "":
			res = prefix
		default:
			res = prefix + "\n\n" + suffix
		}
		pos = len(prefix)
	}
	return strings.TrimSpace(res)
}

func extractStructured(text string) []llmadapter.ToolCall {
	var result []llmadapter.ToolCall
	pos := 0
	for {
		_, _, jsonStart, jsonEnd, found := nextToolCallBlock(text, pos)
		if !found {
			break
		}
		jsonStr := text[jsonStart:jsonEnd]
		pos = jsonEnd

		var wrapper struct {
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		}
		if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
			continue
		}
		for _, tc := range wrapper.ToolCalls {
			var args jsonvalue.Value
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = jsonvalue.Object(nil)
			}
			result = append(result, llmadapter.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			})
		}
	}
	return result
}

// nextToolCallBlock locates the next `{"tool_calls": ...}` JSON object in
// text, including any markdown code fence wrapping it. Ported from the
// brace-matching scanner used to parse CLI-model tool-call output.
func nextToolCallBlock(text string, startFrom int) (blockStart, blockEnd, jsonStart, jsonEnd int, found bool) {
	idx := startFrom
	for {
		if idx >= len(text) {
			return 0, 0, 0, 0, false
		}
		openingBrace := strings.Index(text[idx:], "{")
		if openingBrace == -1 {
			return 0, 0, 0, 0, false
		}
		jsonStart = idx + openingBrace

		afterBrace := text[jsonStart+1:]
		trimmed := strings.TrimLeft(afterBrace, " \t\n\r")
		if strings.HasPrefix(trimmed, `"tool_calls"`) {
			jsonEnd = findMatchingBrace(text, jsonStart)
			if jsonEnd != jsonStart {
				break
			}
		}
		idx = jsonStart + 1
	}

	blockStart = jsonStart
	blockEnd = jsonEnd

	prefix := text[:jsonStart]
	trimmedPrefix := strings.TrimRight(prefix, " \t\n\r")
	if strings.HasSuffix(trimmedPrefix, "```json") {
		blockStart = strings.LastIndex(trimmedPrefix, "```json")
	} else if strings.HasSuffix(trimmedPrefix, "```") {
		blockStart = strings.LastIndex(trimmedPrefix, "```")
	}

	suffix := text[jsonEnd:]
	trimmedSuffix := strings.TrimLeft(suffix, " \t\n\r")
	if strings.HasPrefix(trimmedSuffix, "```") {
		wsLen := len(suffix) - len(trimmedSuffix)
		blockEnd = jsonEnd + wsLen + 3
	}

	return blockStart, blockEnd, jsonStart, jsonEnd, true
}

// findMatchingBrace finds the index after the closing brace matching the
// opening brace at pos, respecting string contents and escapes.
func findMatchingBrace(text string, pos int) int {
	if pos < 0 || pos >= len(text) || text[pos] != '{' {
		return pos
	}
	depth := 0
	inString := false
	escaped := false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return pos
}

// extractTextual recognizes the bare `name(arg=value, arg2="value two")`
// call form against the set of tool names the proxy actually knows
// about, so ordinary prose containing parentheses is never mistaken for
// a call.
func extractTextual(text string, knownNames map[string]bool) []llmadapter.ToolCall {
	if len(knownNames) == 0 {
		return nil
	}
	var result []llmadapter.ToolCall
	for name := range knownNames {
		start := 0
		for {
			idx := strings.Index(text[start:], name+"(")
			if idx == -1 {
				break
			}
			callStart := start + idx
			openParen := callStart + len(name)
			if callStart > 0 && isIdentByte(text[callStart-1]) {
				start = openParen + 1
				continue
			}
			closeParen := findMatchingParen(text, openParen)
			if closeParen == openParen {
				start = openParen + 1
				continue
			}
			argsStr := text[openParen+1 : closeParen-1]
			result = append(result, llmadapter.ToolCall{
				Name:      name,
				Arguments: parseTextualArgs(argsStr),
			})
			start = closeParen
		}
	}
	return result
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func findMatchingParen(text string, pos int) int {
	if pos < 0 || pos >= len(text) || text[pos] != '(' {
		return pos
	}
	depth := 0
	inString := false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return pos
}

// parseTextualArgs splits a comma-separated `key=value` argument list into
// a jsonvalue object, best-effort typing bare numbers/booleans and
// unquoting string literals.
func parseTextualArgs(s string) jsonvalue.Value {
	obj := map[string]jsonvalue.Value{}
	for _, part := range splitArgs(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq == -1 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		val := strings.TrimSpace(part[eq+1:])
		obj[key] = parseTextualScalar(val)
	}
	return jsonvalue.Object(obj)
}

func splitArgs(s string) []string {
	var parts []string
	depth := 0
	inString := false
	last := 0
	for i, c := range s {
		switch {
		case inString:
			if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	parts = append(parts, s[last:])
	return parts
}

func parseTextualScalar(val string) jsonvalue.Value {
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		return jsonvalue.String(val[1 : len(val)-1])
	}
	switch val {
	case "true":
		return jsonvalue.Bool(true)
	case "false":
		return jsonvalue.Bool(false)
	case "null":
		return jsonvalue.Null()
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		return jsonvalue.Float(n)
	}
	return jsonvalue.String(val)
}
