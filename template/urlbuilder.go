package template

import "strings"

type segmentState int

const (
	segmentBeginning segmentState = iota
	segmentInside
)

type bufferedValue struct {
	value            string
	requiresEncoding bool
}

// urlBuilder accumulates a path segment by segment. Values equal to their
// defaults are buffered and only written once later content needs them,
// which lets trailing default segments disappear from the link.
type urlBuilder struct {
	path            strings.Builder
	query           strings.Builder
	buffer          []bufferedValue
	bufferState     segmentState
	uriState        segmentState
	hasEmptySegment bool
	lastValueOffset int
}

func newURLBuilder() *urlBuilder {
	return &urlBuilder{lastValueOffset: -1}
}

// accept writes value to the path, flushing any buffered defaults first.
// An empty value is only allowed at the start of a segment and no text may
// follow it.
func (b *urlBuilder) accept(value string, encodeSlashes bool) bool {
	if value == "" {
		if b.uriState == segmentInside || b.bufferState == segmentInside {
			return false
		}
		b.hasEmptySegment = true
		return true
	} else if b.hasEmptySegment {
		return false
	}

	for _, buffered := range b.buffer {
		if buffered.requiresEncoding {
			b.encode(buffered.value, true)
		} else {
			b.path.WriteString(buffered.value)
		}
	}
	b.buffer = b.buffer[:0]

	if b.uriState == segmentBeginning && b.bufferState == segmentBeginning && b.path.Len() != 0 {
		b.path.WriteByte('/')
	}

	b.bufferState = segmentInside
	b.uriState = segmentInside

	b.lastValueOffset = b.path.Len()

	// A leading slash on the first value is kept as the path root.
	if b.lastValueOffset == 0 && value[0] == '/' {
		b.path.WriteByte('/')
		b.encode(value[1:], encodeSlashes)
	} else {
		b.encode(value, encodeSlashes)
	}

	return true
}

// remove drops everything written by the last accept call.
func (b *urlBuilder) remove() {
	if b.lastValueOffset < 0 {
		return
	}
	s := b.path.String()[:b.lastValueOffset]
	b.path.Reset()
	b.path.WriteString(s)
	b.lastValueOffset = -1
}

// bufferDefault holds value back until accept needs it.
func (b *urlBuilder) bufferDefault(value string) bool {
	if value == "" {
		if b.bufferState == segmentInside {
			return false
		}
		b.hasEmptySegment = true
		return true
	} else if b.hasEmptySegment {
		return false
	}

	if b.uriState == segmentInside {
		return b.accept(value, true)
	}

	if b.uriState == segmentBeginning && b.bufferState == segmentBeginning {
		if b.path.Len() != 0 || len(b.buffer) != 0 {
			b.buffer = append(b.buffer, bufferedValue{value: "/"})
		}
		b.bufferState = segmentInside
	}

	b.buffer = append(b.buffer, bufferedValue{value: value, requiresEncoding: true})
	return true
}

func (b *urlBuilder) endSegment() {
	b.bufferState = segmentBeginning
	b.uriState = segmentBeginning
}

func (b *urlBuilder) encode(value string, encodeSlashes bool) {
	if encodeSlashes {
		writeEscaped(&b.path, value)
		return
	}

	for {
		i := strings.IndexByte(value, '/')
		if i < 0 {
			writeEscaped(&b.path, value)
			return
		}
		writeEscaped(&b.path, value[:i])
		b.path.WriteByte('/')
		value = value[i+1:]
	}
}

func (b *urlBuilder) addQuery(key, value string) {
	if b.query.Len() == 0 {
		b.query.WriteByte('?')
	} else {
		b.query.WriteByte('&')
	}
	writeEscaped(&b.query, key)
	b.query.WriteByte('=')
	writeEscaped(&b.query, value)
}

// pathString returns the path with a leading slash. Buffered values are
// defaults and are dropped.
func (b *urlBuilder) pathString() string {
	p := b.path.String()
	if p == "" || p[0] != '/' {
		return "/" + p
	}
	return p
}
