// Package llmtext pulls structured payloads (code blocks, JSON) out of free
// text returned by a language model, which may or may not use markdown fences.
package llmtext

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoContent is returned when a response holds nothing usable.
var ErrNoContent = errors.New("no content in model response")

// Block is one fenced markdown block.
type Block struct {
	Lang string
	Body string
}

// FencedBlocks returns every ``` fenced block in text, in order. An
// unterminated final fence runs to the end of the text.
func FencedBlocks(text string) []Block {
	var blocks []Block
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var cur *Block
	var body []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			if cur != nil {
				body = append(body, line)
			}
			continue
		}
		if cur == nil {
			cur = &Block{Lang: strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))}
			body = body[:0]
			continue
		}
		cur.Body = strings.Join(body, "\n")
		blocks = append(blocks, *cur)
		cur = nil
	}
	if cur != nil {
		cur.Body = strings.Join(body, "\n")
		blocks = append(blocks, *cur)
	}
	return blocks
}

// ExtractCodeBlock returns the first block tagged lang, else the first fenced
// block of any language, else the whole trimmed text.
func ExtractCodeBlock(text, lang string) (string, error) {
	blocks := FencedBlocks(text)
	for _, b := range blocks {
		if b.Lang == lang || (lang == "python" && b.Lang == "py") {
			return finish(b.Body)
		}
	}
	if len(blocks) > 0 {
		return finish(blocks[0].Body)
	}
	return finish(text)
}

func finish(s string) (string, error) {
	s = strings.Trim(s, "\n")
	if strings.TrimSpace(s) == "" {
		return "", ErrNoContent
	}
	return s + "\n", nil
}

// StripMarkdownFences returns the body of the first fenced block, or the
// trimmed text when it is not fenced.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if blocks := FencedBlocks(text); len(blocks) > 0 {
		return blocks[0].Body
	}
	return text
}

// ExtractJSON returns the outermost JSON object or array embedded in text.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON content found")
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return "", fmt.Errorf("no closing %s found", closer)
	}
	return text[start : end+1], nil
}

// ParseJSON decodes the JSON payload of a model response into T.
func ParseJSON[T any](raw string) (T, error) {
	var out T
	payload, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return out, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, fmt.Errorf("invalid JSON: %w (text: %s)", err, Truncate(payload, 200))
	}
	return out, nil
}

// Truncate shortens s to at most n bytes, marking the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Tail keeps the last n bytes of s, marking the cut with "...".
func Tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
