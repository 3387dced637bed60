package gsdb

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

const sampleDB = `// GSConf local configuration
"settings" = {
	"sshkey" = {
		"pub" = "ssh-rsa AAAA";
		"priv" = "/home/gs/.ssh/id_rsa";
	};
	"editor" = "vim";
};
"servers" = ("hub.gamesurge.net", "leaf.gamesurge.net");
/* trailing
   block comment */
"motd" "Welcome\n\Cto\1GameSurge\2";
`

func TestParse_Sample(t *testing.T) {
	root := mustParse(t, sampleDB)

	e := NewObject()
	settings := NewObject()
	sshkey := NewObject()
	sshkey.SetString("pub", "ssh-rsa AAAA")
	sshkey.SetString("priv", "/home/gs/.ssh/id_rsa")
	settings.SetObject("sshkey", sshkey)
	settings.SetString("editor", "vim")
	e.SetObject("settings", settings)
	e.SetList("servers", "hub.gamesurge.net", "leaf.gamesurge.net")
	e.SetString("motd", "Welcome\n\x1bto\x01GameSurge\x02")

	treeEqual(t, root, e)
	deepEqual(t, root.Keys(), []string{"settings", "servers", "motd"})
}

func TestParse_Escapes(t *testing.T) {
	root := mustParse(t, `"k" = "\\ \" \n \r \t \C \1 \2 \q \/";`)
	deepEqual(t, root.Get("k").Str(), "\\ \" \n \r \t \x1b \x01 \x02 q /")

	root = mustParse(t, `"k" = "\C";`)
	if s := root.Get("k").Str(); s != "\x1b" {
		t.Fatalf("\\C = %q, wanted a single ESC byte", s)
	}
}

func TestParse_Comments(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"line before", "// c\n\"a\" = \"b\";"},
		{"line after", "\"a\" = \"b\"; // c"},
		{"block between tokens", `"a"/**/=/* x */"b"/*y*/;`},
		{"block with stars", `/* a **/ "a" = "b"; /***/`},
		{"multiline block", "/*\n * a\n */\n\"a\" = \"b\";\n"},
		{"no equals", `"a" "b";`},
		{"crlf", "\"a\" = \"b\";\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)
			deepEqual(t, root.Keys(), []string{"a"})
			deepEqual(t, root.Get("a").Str(), "b")
		})
	}
}

func TestParse_Lists(t *testing.T) {
	root := mustParse(t, `"e" = (); "one" = ("a"); "trailing" = ("a", "b",); "spaced" = ( "a" , /* c */ "b" );`)
	deepEqual(t, root.Get("e").List(), []string{})
	deepEqual(t, root.Get("one").List(), []string{"a"})
	deepEqual(t, root.Get("trailing").List(), []string{"a", "b"})
	deepEqual(t, root.Get("spaced").List(), []string{"a", "b"})
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "// nothing\n/* here */"} {
		root := mustParse(t, input)
		if root == nil || root.Len() != 0 {
			t.Errorf("Parse(%q) = %v, wanted an empty root", input, root.Keys())
		}
	}
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	root := mustParse(t, `"a" = "1"; "b" = "2"; "A" = ("3");`)
	deepEqual(t, root.Keys(), []string{"A", "b"})
	deepEqual(t, root.Get("a").List(), []string{"3"})
}

func TestParse_CaseInsensitiveLookup(t *testing.T) {
	root := mustParse(t, `"Settings" = { "Editor" = "vim"; };`)
	if s, ok := root.FetchString("settings/EDITOR"); !ok || s != "vim" {
		t.Fatalf("FetchString = (%q, %v), wanted (\"vim\", true)", s, ok)
	}
	deepEqual(t, root.Keys(), []string{"Settings"})
}

func TestParse_NUL(t *testing.T) {
	root := mustParse(t, "\"k\" = \"a\x00b\";")
	deepEqual(t, root.Get("k").Str(), "a\x00b")
	treeEqual(t, mustParse(t, mustMarshal(t, root)), root)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     ErrorCode
		line     int
		col      int
		released int
	}{
		{"eof in string", `"a" = "bc`, UnterminatedString, 1, 9, 4},
		{"newline in string", "\"a\" = \"b\n\";", UnterminatedString, 1, 8, 4},
		{"eof after backslash", `"a" = "b\`, UnterminatedString, 1, 9, 4},
		{"bare key", `x = "y";`, ExpectedOpenQuote, 1, 1, 1},
		{"stray slash", "\"a\" = \"b\"; /\n", ExpectedOpenQuote, 1, 12, 1},
		{"slash at eof", "\"a\" = \"b\"; /", ExpectedOpenQuote, 1, 12, 1},
		{"missing comma", `"l" = ("a" "b");`, ExpectedComma, 1, 12, 4},
		{"bad data", `"k" = x;`, ExpectedStartData, 1, 7, 3},
		{"missing semicolon", "\"k\" = \"v\"\n\"k2\" = \"v2\";", ExpectedSemicolon, 2, 1, 3},
		{"key only", `"k"`, ExpectedRecordData, 1, 3, 3},
		{"key and equals", `"k" =`, ExpectedRecordData, 1, 5, 3},
		{"open comment", `"a" = "b"; /* x`, ExpectedCommentEnd, 1, 15, 1},
		{"open comment in record", `"a" /* x`, ExpectedCommentEnd, 1, 8, 3},
		{"eof in object", `"o" = { "a" = "b";`, UnexpectedEOF, 1, 18, 4},
		{"eof in object on new line", "\"o\" = {\n\t\"a\" = \"b\";\n", UnexpectedEOF, 3, 1, 4},
		{"eof in list", `"l" = ("a",`, UnexpectedEOF, 1, 11, 4},
		{"eof in list after item", `"l" = ("a"`, UnexpectedEOF, 1, 10, 4},
		{"nested failure", `"o" = { "p" = { "q" = ("a" "b"); }; };`, ExpectedComma, 1, 28, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParser(tt.input)
			root, stats, err := p.run()
			if root != nil {
				t.Errorf("root = %v, wanted nil", root.Keys())
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, wanted *ParseError", err)
			}
			deepEqual(t, *pe, ParseError{Name: "test", Line: tt.line, Column: tt.col, Code: tt.code})
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("errors.Is(err, ErrSyntax) = false")
			}
			if n := p.tr.live(); n != 0 {
				t.Errorf("tracker has %d live allocations after failure", n)
			}
			deepEqual(t, stats.Released, tt.released)
		})
	}
}

func TestParse_UnreachableRules(t *testing.T) {
	p := testParser(`"x"`)
	deepEqual(t, abortCode(func() { p.parseObject(p.lex.skip()) }), ExpectedOpenBrace)

	p = testParser(`{`)
	deepEqual(t, abortCode(func() { p.parseStringList(p.lex.skip()) }), ExpectedOpenParen)
}

func TestParse_ErrorMessage(t *testing.T) {
	_, err := Parse("local", []byte(`"a" = "b"`))
	deepEqual(t, err.Error(), `local:1:9: Expected semicolon (';')`)
}

func TestParse_SuccessReleasesNothing(t *testing.T) {
	root, stats, err := ParseWithStats("t", []byte(sampleDB))
	if err != nil {
		t.Fatal(err)
	}
	if root.Len() != 3 {
		t.Fatalf("root.Len() = %d, wanted 3", root.Len())
	}
	if stats.Tracked == 0 || stats.Released != 0 {
		t.Fatalf("stats = %+v, wanted Tracked > 0 and Released == 0", stats)
	}
}

func TestParseReader(t *testing.T) {
	e := mustParse(t, sampleDB)

	a, err := ParseReader("t", iotest.OneByteReader(strings.NewReader(sampleDB)))
	if err != nil {
		t.Fatal(err)
	}
	treeEqual(t, a, e)

	_, err = ParseReader("t", strings.NewReader(`"a" = ("b" "c");`))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Code != ExpectedComma || pe.Column != 12 {
		t.Fatalf("err = %v, wanted ExpectedComma at column 12", err)
	}
}

func TestParseReader_IOError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader(`"a" = "b";`), iotest.ErrReader(boom))
	root, err := ParseReader("t", r)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, wanted %v", err, boom)
	}
	if root != nil {
		t.Fatalf("root = %v, wanted nil", root.Keys())
	}
}

func TestLexer_SlashAtEOF(t *testing.T) {
	for _, src := range []source{
		&bufferSource{data: []byte(" /")},
		newReaderSource(strings.NewReader(" /"), nil),
	} {
		l := newLexer(src, func(ErrorCode) { t.Fatal("unexpected failure") })
		deepEqual(t, l.skip(), int('/'))
		deepEqual(t, [2]int{l.line, l.col}, [2]int{1, 2})
		deepEqual(t, l.skip(), eof)
	}
}

func TestLexer_UnreadNewline(t *testing.T) {
	l := newLexer(&bufferSource{data: []byte("ab\nc")}, func(ErrorCode) { t.Fatal("unexpected failure") })
	l.next()
	l.next()
	deepEqual(t, [2]int{l.line, l.col}, [2]int{1, 2})
	l.next()
	deepEqual(t, [2]int{l.line, l.col}, [2]int{2, 0})
	l.unread()
	deepEqual(t, [2]int{l.line, l.col}, [2]int{1, 2})
	deepEqual(t, l.next(), int('\n'))
	deepEqual(t, l.next(), int('c'))
	deepEqual(t, [2]int{l.line, l.col}, [2]int{2, 1})
	deepEqual(t, l.next(), eof)
	l.unread()
	deepEqual(t, l.next(), eof)
}
