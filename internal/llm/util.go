package llm

import (
	"strings"

	"github.com/tidwall/gjson"
)

// CleanJSONBlock removes markdown code fences and surrounding prose from a JSON reply.
// Models often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if value := extractJSONValue(text); value != "" {
		return value
	}
	return text
}

// extractJSONValue returns the first balanced JSON object or array in text,
// or "" when none is found.
func extractJSONValue(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// messageText returns the text of a chat completion message.
// Content may be a plain string or a list of fragments carrying "text" fields.
func messageText(rawMessage string) string {
	content := gjson.Get(rawMessage, "content")
	if !content.IsArray() {
		return content.String()
	}

	var sb strings.Builder
	for _, item := range content.Array() {
		if item.IsObject() {
			sb.WriteString(item.Get("text").String())
		}
	}
	return sb.String()
}
