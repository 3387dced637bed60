package gsdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// parseAbort unwinds a parse from any depth back to parser.run.
type parseAbort struct {
	code ErrorCode
}

type parser struct {
	ctx     context.Context
	name    string
	lex     *lexer
	tr      tracker
	logger  *slog.Logger
	verbose bool
}

func newParser(ctx context.Context, name string, src source, logger *slog.Logger, verbose bool) *parser {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &parser{ctx: ctx, name: name, logger: logger, verbose: verbose}
	p.lex = newLexer(src, p.fail)
	return p
}

func (p *parser) fail(code ErrorCode) {
	panic(parseAbort{code})
}

// run parses the whole source into a root object. On a grammar error
// every partially built node is released and a *ParseError is returned.
func (p *parser) run() (root *Object, stats ParseStats, err error) {
	defer func() {
		stats.Tracked = p.tr.total
		if e := recover(); e != nil {
			abort, ok := e.(parseAbort)
			if !ok {
				panic(e)
			}
			stats.Released = p.tr.release()
			root = nil
			err = &ParseError{
				Name:   p.name,
				Line:   p.lex.line,
				Column: p.lex.column(),
				Code:   abort.code,
			}
			if p.verbose {
				p.logger.LogAttrs(p.ctx, slog.LevelDebug, "gsdb: parse failed", slog.String("db", p.name), slog.Any("err", err), slog.Int("released", stats.Released))
			}
		}
	}()

	root = p.parseRoot()
	if n := p.tr.live(); n != 0 {
		panic(fmt.Errorf("gsdb: %d allocations still tracked after parsing %s", n, p.name))
	}
	return root, stats, nil
}

// parseRoot reads records until EOF. The root is a brace-less object.
func (p *parser) parseRoot() *Object {
	obj := NewObject()
	h := p.tr.track(allocObject, obj)
	for {
		c := p.lex.skip()
		if c == eof {
			break
		}
		p.parseRecord(obj, c)
	}
	p.tr.untrack(h)
	return obj
}

func (p *parser) parseObject(c int) *Object {
	if c != '{' {
		p.fail(ExpectedOpenBrace)
	}
	obj := NewObject()
	h := p.tr.track(allocObject, obj)
	for {
		c = p.lex.skip()
		switch c {
		case '}':
			p.tr.untrack(h)
			return obj
		case eof:
			p.fail(UnexpectedEOF)
		}
		p.parseRecord(obj, c)
	}
}

// parseRecord parses `"key" [=] data ;` into obj. c is the first
// significant character of the record.
func (p *parser) parseRecord(obj *Object, c int) {
	key := p.parseString(c)
	hk := p.tr.track(allocString, &key)
	node := &Value{}
	hn := p.tr.track(allocNode, node)

	c = p.lex.skip()
	if c == '=' {
		c = p.lex.skip()
	}
	switch c {
	case eof:
		p.fail(ExpectedRecordData)
	case '"':
		node.str = p.parseString(c)
		node.kind = KindString
	case '(':
		node.list = p.parseStringList(c)
		node.kind = KindStringList
	case '{':
		node.obj = p.parseObject(c)
		node.kind = KindObject
	default:
		p.fail(ExpectedStartData)
	}

	if p.lex.skip() != ';' {
		p.fail(ExpectedSemicolon)
	}

	if obj.Set(key, node) {
		p.logger.LogAttrs(p.ctx, slog.LevelDebug, "gsdb: duplicate key, keeping the last value", slog.String("db", p.name), slog.String("key", key), slog.Int("line", p.lex.line))
	}
	p.tr.untrack(hn)
	p.tr.untrack(hk)
}

func (p *parser) parseStringList(c int) []string {
	if c != '(' {
		p.fail(ExpectedOpenParen)
	}
	list := []string{}
	h := p.tr.track(allocList, &list)
	for {
		c = p.lex.skip()
		switch c {
		case ')':
			p.tr.untrack(h)
			return list
		case eof:
			p.fail(UnexpectedEOF)
		}
		list = append(list, p.parseString(c))

		switch p.lex.skip() {
		case ',':
		case ')':
			p.tr.untrack(h)
			return list
		case eof:
			p.fail(UnexpectedEOF)
		default:
			p.fail(ExpectedComma)
		}
	}
}

// parseString reads a quoted string. c must be the opening quote.
func (p *parser) parseString(c int) string {
	if c != '"' {
		p.fail(ExpectedOpenQuote)
	}
	buf := make([]byte, 0, 32)
	h := p.tr.track(allocBuffer, &buf)
	for {
		c = p.lex.next()
		switch c {
		case eof:
			p.fail(UnterminatedString)
		case '\n':
			p.lex.unread()
			p.fail(UnterminatedString)
		case '"':
			s := string(buf)
			p.tr.untrack(h)
			return s
		case '\\':
			c = p.lex.next()
			switch c {
			case eof:
				p.fail(UnterminatedString)
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'C':
				c = 0x1B
			case '1':
				c = 0x01
			case '2':
				c = 0x02
			}
		}
		buf = append(buf, byte(c))
	}
}

func parseSource(ctx context.Context, name string, src source, logger *slog.Logger, verbose bool) (*Object, ParseStats, error) {
	p := newParser(ctx, name, src, logger, verbose)
	root, stats, err := p.run()
	if ioErr := src.err(); ioErr != nil {
		return nil, stats, fmt.Errorf("%s: %w", name, ioErr)
	}
	return root, stats, err
}

// Parse parses an in-memory database. name is only used in error messages.
func Parse(name string, data []byte) (*Object, error) {
	root, _, err := ParseWithStats(name, data)
	return root, err
}

// ParseWithStats is like Parse but also reports allocation tracking totals.
func ParseWithStats(name string, data []byte) (*Object, ParseStats, error) {
	return parseSource(context.Background(), name, &bufferSource{data: data}, nil, false)
}

// ParseReader parses a database read through a buffered reader.
func ParseReader(name string, r io.Reader) (*Object, error) {
	root, _, err := parseSource(context.Background(), name, newReaderSource(r, nil), nil, false)
	return root, err
}

// Load parses the database file at path without registering it anywhere.
func Load(path string) (*Object, error) {
	return LoadOptions(path, Options{})
}

// LoadOptions is like Load but honors the NoMmap, Context, Logger and
// Verbose fields of opt.
func LoadOptions(path string, opt Options) (*Object, error) {
	opt.fillDefaults()
	src, err := openFileSource(opt.Context, path, opt.NoMmap, opt.Logger)
	if err != nil {
		return nil, err
	}
	defer src.close()
	root, _, err := parseSource(opt.Context, path, src, opt.Logger, opt.Verbose)
	return root, err
}
