// Package jsrepair turns JavaScript object-literal text, as found in scraped catalog files, into valid JSON.
//
// Supported damage: a leading "var x =" assignment and trailing semicolon, comments, single-quoted strings,
// unquoted keys, missing commas between values or properties, trailing commas and several top-level values.
// Anything else is reported as ErrUnrepairable.
package jsrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrUnrepairable = errors.New("text cannot be repaired into JSON")

var (
	assignmentPrefix = regexp.MustCompile(`^\s*(?:var|let|const)\s+[\w$.]+\s*=\s*`)
	statementSuffix  = regexp.MustCompile(`;\s*$`)
)

// Repair returns valid JSON for text. Several top-level values are wrapped into an array.
func Repair(text string) ([]byte, error) {
	tokens, err := tokenize(strip(text))
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no content", ErrUnrepairable)
	}

	out, topLevel := emit(tokens)
	if topLevel > 1 {
		out = "[" + out + "]"
	}

	return validate(out)
}

// RepairArray behaves like Repair but always returns a JSON array.
func RepairArray(text string) ([]byte, error) {
	tokens, err := tokenize(strip(text))
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return []byte("[]"), nil
	}

	out, topLevel := emit(tokens)
	if topLevel > 1 || tokens[0].kind != punct || tokens[0].text != "[" {
		out = "[" + out + "]"
	}

	return validate(out)
}

func strip(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = assignmentPrefix.ReplaceAllString(text, "")

	return statementSuffix.ReplaceAllString(text, "")
}

func validate(out string) ([]byte, error) {
	if !json.Valid([]byte(out)) {
		return nil, fmt.Errorf("%w: result is not valid JSON", ErrUnrepairable)
	}

	return []byte(out), nil
}

type tokenKind int

const (
	punct tokenKind = iota
	str
	word
)

type token struct {
	kind tokenKind
	// text is the JSON rendering for strings, the raw word or the punctuation character.
	text string
}

func (t token) startsValue() bool {
	return t.kind != punct || t.text == "{" || t.text == "["
}

func (t token) endsValue() bool {
	return t.kind != punct || t.text == "}" || t.text == "]"
}

func tokenize(text string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(text); {
		c := text[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				i = len(text)
			} else {
				i += end
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated comment at offset %d", ErrUnrepairable, i)
			}

			i += end + 4
		case strings.IndexByte("{}[],:", c) >= 0:
			tokens = append(tokens, token{kind: punct, text: string(c)})
			i++
		case c == '"' || c == '\'':
			rendered, next, err := readString(text, i)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{kind: str, text: rendered})
			i = next
		case isWordByte(c):
			start := i
			for i < len(text) && isWordByte(text[i]) {
				i++
			}

			tokens = append(tokens, token{kind: word, text: text[start:i]})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrUnrepairable, c, i)
		}
	}

	return tokens, nil
}

// readString reads a quoted string starting at text[start] and renders it as a JSON string.
func readString(text string, start int) (string, int, error) {
	quote := text[start]

	var b strings.Builder

	b.WriteByte('"')

	for i := start + 1; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '\\' && i+1 < len(text):
			next := text[i+1]
			if next == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(next)
			}

			i++
		case c == quote:
			b.WriteByte('"')
			return b.String(), i + 1, nil
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
		default:
			b.WriteByte(c)
		}
	}

	return "", 0, fmt.Errorf("%w: unterminated string at offset %d", ErrUnrepairable, start)
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '.' || c == '+' || c == '-' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// emit renders the token stream as JSON text and reports how many top-level values it contained.
func emit(tokens []token) (string, int) {
	var (
		b        strings.Builder
		prev     *token
		depth    int
		topLevel int
	)

	for i := range tokens {
		t := tokens[i]

		var next *token
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}

		if t.kind == punct && t.text == "," {
			// trailing or doubled comma
			if next == nil || next.text == "}" || next.text == "]" || (next.kind == punct && next.text == ",") {
				continue
			}

			if prev == nil || (prev.kind == punct && (prev.text == "," || prev.text == "[" || prev.text == "{")) {
				continue
			}
		}

		// missing separator between two values or properties
		if t.startsValue() && prev != nil && prev.endsValue() {
			b.WriteByte(',')
		}

		if depth == 0 && t.startsValue() {
			topLevel++
		}

		switch t.kind {
		case punct:
			b.WriteString(t.text)

			switch t.text {
			case "{", "[":
				depth++
			case "}", "]":
				depth--
			}
		case str:
			b.WriteString(t.text)
		case word:
			isKey := next != nil && next.kind == punct && next.text == ":"
			b.WriteString(renderWord(t.text, isKey))
		}

		prev = &tokens[i]
	}

	return b.String(), topLevel
}

func renderWord(w string, isKey bool) string {
	if isKey {
		return strconv.Quote(w)
	}

	switch w {
	case "true", "false", "null":
		return w
	case "undefined", "NaN":
		return "null"
	}

	if json.Valid([]byte(w)) {
		return w
	}

	if f, err := strconv.ParseFloat(w, 64); err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return "null"
		}

		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.Quote(w)
}
