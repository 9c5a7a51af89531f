package jsondelta

import (
	"strconv"
	"strings"

	"github.com/agentflare-ai/jsonpointer"
	"github.com/pkg/errors"
)

// Pointer is an RFC 6901 JSON Pointer kept in its escaped text form. The
// empty pointer addresses the whole document. Pointers are immutable and
// comparable, so they can be used as map keys.
type Pointer string

// RootPointer addresses the whole document.
const RootPointer Pointer = ""

const (
	// EndToken addresses the position one past the end of an array.
	EndToken = "-"
	// QueryToken stands for an array element located by identity fields
	// rather than by index. See Operation.Locator.
	QueryToken = "?"
)

var (
	tokenEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	tokenUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// PointerOf builds a pointer from raw (unescaped) tokens.
func PointerOf(tokens ...string) Pointer {
	p := RootPointer
	for _, tok := range tokens {
		p = p.Append(tok)
	}
	return p
}

// ParsePointer validates RFC 6901 text and returns it as a Pointer.
func ParsePointer(text string) (Pointer, error) {
	p := Pointer(text)
	if _, err := p.Tokens(); err != nil {
		return "", err
	}
	return p, nil
}

// MustParsePointer is like ParsePointer but panics on invalid input.
func MustParsePointer(text string) Pointer {
	p, err := ParsePointer(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Append returns a new pointer with token added at the end.
func (p Pointer) Append(token string) Pointer {
	return p + "/" + Pointer(tokenEscaper.Replace(token))
}

// AppendIndex returns a new pointer with an array index added at the end.
func (p Pointer) AppendIndex(i int) Pointer {
	return p + "/" + Pointer(strconv.Itoa(i))
}

// IsRoot reports whether p addresses the whole document.
func (p Pointer) IsRoot() bool {
	return p == RootPointer
}

// Parent drops the last token. The root pointer has no parent.
func (p Pointer) Parent() (Pointer, error) {
	if p.IsRoot() {
		return "", newError(EmptyPointer, "", p)
	}
	// escaped tokens never contain '/', so the last separator is the boundary
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return "", newError(InvalidPointer, "", p)
	}
	return p[:i], nil
}

// Last returns the unescaped last token, or "" for the root pointer.
func (p Pointer) Last() string {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return ""
	}
	return tokenUnescaper.Replace(string(p[i+1:]))
}

// Tokens returns the unescaped reference tokens.
func (p Pointer) Tokens() ([]string, error) {
	if p.IsRoot() {
		return nil, nil
	}
	if err := checkEscapes(string(p)); err != nil {
		return nil, newError(InvalidPointer, "", p).withDetail("%v", err)
	}
	parsed, err := jsonpointer.New(string(p))
	if err != nil {
		return nil, newError(InvalidPointer, "", p).withDetail("%v", err)
	}
	return []string(parsed), nil
}

// HasQuery reports whether any token is the query token.
func (p Pointer) HasQuery() bool {
	tokens, err := p.Tokens()
	if err != nil {
		return false
	}
	for _, tok := range tokens {
		if tok == QueryToken {
			return true
		}
	}
	return false
}

// String returns the RFC 6901 text form.
func (p Pointer) String() string {
	return string(p)
}

// Resolve returns the value addressed by p in doc. A location that does not
// exist yields false; Resolve never fails.
func (p Pointer) Resolve(doc any) (any, bool) {
	tokens, err := p.Tokens()
	if err != nil {
		return nil, false
	}
	return resolveTokens(doc, tokens)
}

func resolveTokens(doc any, tokens []string) (any, bool) {
	if len(tokens) == 0 {
		return doc, true
	}
	v, err := jsonpointer.Pointer(tokens).Get(doc)
	if err != nil {
		return nil, false
	}
	return v, true
}

// parseIndex parses an RFC 6901 array index. "-" is not an index.
func parseIndex(tok string) (int, error) {
	idx, err := jsonpointer.ParseArrayIndex(tok)
	if err != nil {
		return 0, err
	}
	if idx > uint64(maxInt) {
		return 0, strconv.ErrRange
	}
	return int(idx), nil
}

const maxInt = int(^uint(0) >> 1)

// checkEscapes rejects text that does not start with '/' or holds a '~'
// not followed by '0' or '1'.
func checkEscapes(text string) error {
	if text[0] != '/' {
		return errors.New("pointer must start with '/'")
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '~' {
			continue
		}
		if i+1 == len(text) || (text[i+1] != '0' && text[i+1] != '1') {
			return errors.Errorf("bad escape at offset %d", i)
		}
	}
	return nil
}
