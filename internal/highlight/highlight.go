// Package highlight implements the pure syntax-highlighting function
// named in spec §1: given a language and one line's bytes, it returns
// the token spans the UI overlays onto that line.
package highlight

// TokenKind classifies one highlighted span.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenKeyword
	TokenString
	TokenComment
	TokenNumber
)

// Span is one (byte_start, byte_end, token_kind) result.
type Span struct {
	Start int
	End   int
	Kind  TokenKind
}

var keywordSets = map[string]map[string]bool{
	"go":         set("func", "package", "import", "return", "if", "else", "for", "range", "var", "const", "type", "struct", "interface", "defer", "go", "chan", "select", "switch", "case", "break", "continue", "nil", "true", "false"),
	"typescript": set("function", "return", "if", "else", "for", "while", "const", "let", "var", "class", "interface", "import", "export", "type", "async", "await", "null", "undefined", "true", "false"),
	"javascript": set("function", "return", "if", "else", "for", "while", "const", "let", "var", "class", "import", "export", "async", "await", "null", "undefined", "true", "false"),
	"python":     set("def", "return", "if", "elif", "else", "for", "while", "import", "from", "class", "with", "as", "try", "except", "finally", "None", "True", "False", "lambda"),
	"rust":       set("fn", "let", "mut", "return", "if", "else", "for", "while", "loop", "match", "struct", "enum", "impl", "trait", "use", "mod", "pub", "true", "false"),
	"zig":        set("fn", "return", "if", "else", "for", "while", "const", "var", "struct", "enum", "union", "pub", "defer", "errdefer", "try", "catch", "comptime", "true", "false", "null"),
	"bash":       set("if", "then", "else", "elif", "fi", "for", "while", "do", "done", "function", "return", "case", "esac"),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var lineCommentPrefix = map[string]string{
	"go": "//", "typescript": "//", "javascript": "//", "rust": "//", "zig": "//",
	"python": "#", "bash": "#",
}

// Highlight tokenizes one line of source. Unknown languages yield no
// spans; the UI then renders the line with no syntax overlay.
func Highlight(language string, lineBytes []byte) []Span {
	keywords, hasLang := keywordSets[language]
	if !hasLang {
		return nil
	}
	commentPrefix := lineCommentPrefix[language]

	var spans []Span
	i := 0
	n := len(lineBytes)
	for i < n {
		c := lineBytes[i]

		if commentPrefix != "" && hasPrefixAt(lineBytes, i, commentPrefix) {
			spans = append(spans, Span{Start: i, End: n, Kind: TokenComment})
			break
		}

		if c == '"' || c == '\'' || c == '`' {
			end := scanString(lineBytes, i, c)
			spans = append(spans, Span{Start: i, End: end, Kind: TokenString})
			i = end
			continue
		}

		if isDigit(c) {
			end := i
			for end < n && (isDigit(lineBytes[end]) || lineBytes[end] == '.') {
				end++
			}
			spans = append(spans, Span{Start: i, End: end, Kind: TokenNumber})
			i = end
			continue
		}

		if isIdentStart(c) {
			end := i
			for end < n && isIdentByte(lineBytes[end]) {
				end++
			}
			word := string(lineBytes[i:end])
			if keywords[word] {
				spans = append(spans, Span{Start: i, End: end, Kind: TokenKeyword})
			}
			i = end
			continue
		}

		i++
	}
	return spans
}

func hasPrefixAt(buf []byte, offset int, prefix string) bool {
	if offset+len(prefix) > len(buf) {
		return false
	}
	return string(buf[offset:offset+len(prefix)]) == prefix
}

func scanString(buf []byte, start int, quote byte) int {
	i := start + 1
	for i < len(buf) {
		if buf[i] == '\\' && i+1 < len(buf) {
			i += 2
			continue
		}
		if buf[i] == quote {
			return i + 1
		}
		i++
	}
	return len(buf)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentByte(c byte) bool  { return isIdentStart(c) || isDigit(c) }
