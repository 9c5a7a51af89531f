package jsondelta

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a patch failure.
type ErrorKind int

const (
	// NoSuchPath means the target of a remove, replace, test, move or copy
	// does not resolve.
	NoSuchPath ErrorKind = iota + 1
	// NoSuchParent means the parent of an add target does not resolve.
	NoSuchParent
	// ParentNotContainer means the parent of an add target is a scalar.
	ParentNotContainer
	// NotAnIndex means an array token is neither an index nor "-".
	NotAnIndex
	// NoSuchIndex means an array index is out of range.
	NoSuchIndex
	// TestFailed means a test operation did not match.
	TestFailed
	// EmptyPointer means the parent of the root pointer was requested.
	EmptyPointer
	// NullArgument means a required input or member was absent.
	NullArgument
	// InvalidPointer means a pointer is not valid RFC 6901 text.
	InvalidPointer
	// UnknownOperation means an operation name is not one of the six
	// RFC 6902 operations.
	UnknownOperation
)

var kindNames = map[ErrorKind]string{
	NoSuchPath:         "NoSuchPath",
	NoSuchParent:       "NoSuchParent",
	ParentNotContainer: "ParentNotContainer",
	NotAnIndex:         "NotAnIndex",
	NoSuchIndex:        "NoSuchIndex",
	TestFailed:         "TestFailed",
	EmptyPointer:       "EmptyPointer",
	NullArgument:       "NullArgument",
	InvalidPointer:     "InvalidPointer",
	UnknownOperation:   "UnknownOperation",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Recoverable reports whether a lenient apply may turn a failure of this
// kind into a no-op. Only "nothing to do" conditions qualify.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case NoSuchPath, NoSuchParent, ParentNotContainer:
		return true
	}
	return false
}

// Messages maps error kinds to human-readable text.
type Messages map[ErrorKind]string

// DefaultMessages is the English message table.
var DefaultMessages = Messages{
	NoSuchPath:         "no such path in target JSON document",
	NoSuchParent:       "parent of node to add does not exist",
	ParentNotContainer: "parent of path to add to is not a container",
	NotAnIndex:         "reference token is not an array index",
	NoSuchIndex:        "no such index in target array",
	TestFailed:         "test failed: value differs from expectations",
	EmptyPointer:       "cannot get the parent of the root pointer",
	NullArgument:       "required argument is absent",
	InvalidPointer:     "invalid JSON pointer",
	UnknownOperation:   "unsupported patch operation",
}

func (m Messages) lookup(k ErrorKind) string {
	if msg, ok := m[k]; ok {
		return msg
	}
	if msg, ok := DefaultMessages[k]; ok {
		return msg
	}
	return k.String()
}

// PatchError is the typed failure returned by the engine, the codec and
// pointer operations.
type PatchError struct {
	Kind ErrorKind
	Op   Op
	Path Pointer
	From Pointer
	// Detail carries the condition that was expected, e.g. an index range.
	Detail string

	messages Messages
}

func newError(kind ErrorKind, op Op, path Pointer) *PatchError {
	return &PatchError{Kind: kind, Op: op, Path: path}
}

func (e *PatchError) withDetail(format string, args ...any) *PatchError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func (e *PatchError) withFrom(from Pointer) *PatchError {
	e.From = from
	return e
}

// Render renders the error with the given message table.
func (e *PatchError) Render(m Messages) string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	b.WriteString(m.lookup(e.Kind))
	switch e.Op {
	case Move, Copy:
		fmt.Fprintf(&b, " (from %q, path %q)", e.From, e.Path)
	default:
		if e.Op != "" || e.Path != "" {
			fmt.Fprintf(&b, " (path %q)", e.Path)
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *PatchError) Error() string {
	m := e.messages
	if m == nil {
		m = DefaultMessages
	}
	return e.Render(m)
}

// Is matches any *PatchError of the same kind, so the Err* sentinels work
// with errors.Is.
func (e *PatchError) Is(target error) bool {
	t, ok := target.(*PatchError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNoSuchPath         = &PatchError{Kind: NoSuchPath}
	ErrNoSuchParent       = &PatchError{Kind: NoSuchParent}
	ErrParentNotContainer = &PatchError{Kind: ParentNotContainer}
	ErrNotAnIndex         = &PatchError{Kind: NotAnIndex}
	ErrNoSuchIndex        = &PatchError{Kind: NoSuchIndex}
	ErrTestFailed         = &PatchError{Kind: TestFailed}
	ErrEmptyPointer       = &PatchError{Kind: EmptyPointer}
	ErrNullArgument       = &PatchError{Kind: NullArgument}
	ErrInvalidPointer     = &PatchError{Kind: InvalidPointer}
	ErrUnknownOperation   = &PatchError{Kind: UnknownOperation}
)
