package gsdb

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/gamesurge/gsdb/mmap"
)

const (
	eof    = -1
	noChar = -2
)

// source is a pull-based byte stream with one byte of pushback.
type source interface {
	readByte() (byte, bool)
	unreadByte()
	// atEOF reports whether the stream is exhausted. It may drop the
	// pushback of the last read byte.
	atEOF() bool
	// checksum returns the xxhash of all bytes consumed so far.
	checksum() uint64
	// err returns the first I/O error hit while reading, if any.
	err() error
	close() error
}

// bufferSource reads from a byte slice, usually a memory-mapped file.
type bufferSource struct {
	data   []byte
	pos    int
	f      *os.File
	mapped bool
}

func (s *bufferSource) readByte() (byte, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	b := s.data[s.pos]
	s.pos++
	return b, true
}

func (s *bufferSource) unreadByte() {
	s.pos--
}

func (s *bufferSource) atEOF() bool {
	return s.pos >= len(s.data)
}

func (s *bufferSource) checksum() uint64 {
	return xxhash.Sum64(s.data[:s.pos])
}

func (s *bufferSource) err() error {
	return nil
}

func (s *bufferSource) close() error {
	var err error
	if s.mapped {
		err = mmap.Unmap(s.data)
		s.mapped = false
	}
	s.data = nil
	if s.f != nil {
		err = errors.Join(err, s.f.Close())
		s.f = nil
	}
	return err
}

// readerSource reads through a bufio.Reader.
type readerSource struct {
	r      *bufio.Reader
	digest *xxhash.Digest
	ioErr  error
	closer io.Closer
}

func newReaderSource(r io.Reader, closer io.Closer) *readerSource {
	d := xxhash.New()
	return &readerSource{
		r:      bufio.NewReader(io.TeeReader(r, d)),
		digest: d,
		closer: closer,
	}
}

func (s *readerSource) readByte() (byte, bool) {
	b, err := s.r.ReadByte()
	if err != nil {
		if err != io.EOF && s.ioErr == nil {
			s.ioErr = err
		}
		return 0, false
	}
	return b, true
}

func (s *readerSource) unreadByte() {
	if err := s.r.UnreadByte(); err != nil {
		panic(err) // only happens on a double unread, which the lexer rules out
	}
}

func (s *readerSource) atEOF() bool {
	_, err := s.r.Peek(1)
	return err != nil
}

func (s *readerSource) checksum() uint64 {
	return s.digest.Sum64()
}

func (s *readerSource) err() error {
	return s.ioErr
}

func (s *readerSource) close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// openFileSource opens path for parsing, memory-mapping it unless noMmap is
// set. A failed mapping falls back to buffered reads.
func openFileSource(ctx context.Context, path string, noMmap bool, logger *slog.Logger) (source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !noMmap {
		data, err := mmap.MapFile(f, mmap.SequentialAccess)
		if err == nil {
			return &bufferSource{data: data, f: f, mapped: true}, nil
		} else if errors.Is(err, mmap.ErrEmpty) {
			return &bufferSource{f: f}, nil
		}
		logger.LogAttrs(ctx, slog.LevelWarn, "gsdb: mmap failed, falling back to buffered reads", slog.String("file", path), slog.Any("err", err))
	}
	return newReaderSource(f, f), nil
}

// lexer tracks line and column positions on top of a source and skips
// whitespace and comments.
type lexer struct {
	src     source
	line    int
	col     int
	prevCol int
	last    int
	fail    func(ErrorCode)
}

func newLexer(src source, fail func(ErrorCode)) *lexer {
	return &lexer{src: src, line: 1, last: noChar, fail: fail}
}

func (l *lexer) next() int {
	b, ok := l.src.readByte()
	if !ok {
		l.last = eof
		return eof
	}
	if b == '\n' {
		l.line++
		l.prevCol = l.col
		l.col = 0
	} else {
		l.col++
	}
	l.last = int(b)
	return l.last
}

// unread pushes back the most recently read character. Only one character
// of pushback is supported.
func (l *lexer) unread() {
	switch l.last {
	case eof:
		return
	case noChar:
		panic("gsdb: unread without a preceding read")
	case '\n':
		l.line--
		l.col = l.prevCol
	default:
		l.col--
	}
	l.src.unreadByte()
	l.last = noChar
}

func (l *lexer) column() int {
	return max(l.col, 1)
}

func isSpace(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// skip returns the next character that is neither whitespace nor part of
// a comment, or eof.
func (l *lexer) skip() int {
	for {
		c := l.next()
		if c == eof {
			return eof
		}
		if isSpace(c) {
			continue
		}
		if c != '/' || l.src.atEOF() {
			return c
		}

		switch l.next() {
		case '/':
			for c = l.next(); c != '\n' && c != eof; c = l.next() {
			}
		case '*':
			l.skipBlockComment()
		default:
			l.unread()
			return '/'
		}
	}
}

func (l *lexer) skipBlockComment() {
	for {
		c := l.next()
		for c != '*' {
			if c == eof {
				l.fail(ExpectedCommentEnd)
			}
			c = l.next()
		}
		for c == '*' {
			c = l.next()
		}
		if c == '/' {
			return
		}
		if c == eof {
			l.fail(ExpectedCommentEnd)
		}
	}
}
