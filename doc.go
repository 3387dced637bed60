// Package gsdb reads and writes GameSurge text databases, the format used by
// the GSConf configuration file and its auxiliary databases.
//
// We implement:
//
// 1. A value model: every node is a string, a list of strings, or an object
// mapping keys to further nodes. Objects keep insertion order; key lookups
// ignore case.
//
// 2. A parser that reads a file (memory-mapped when possible, buffered
// otherwise) into a tree, reporting the exact position of the first error.
//
// 3. An encoder that writes a tree back in canonical form, and a builder that
// assembles a tree through the same calls.
//
// 4. Database handles with read and write hooks, atomic saves, and a registry.
//
// # File Format
//
// A file is a sequence of records with no surrounding braces:
//
//	// line comment
//	/* block comment */
//	"key" = "value";
//	"list" = ("a", "b", "c");
//	"object" = {
//		"nested" = "value";
//	};
//
// The `=` is optional. Whitespace and comments may appear between any two
// tokens. Strings may not contain a raw newline. Inside a string, a backslash
// introduces an escape:
//
//	\n  newline        \r  carriage return   \t  tab
//	\C  ESC (0x1B)     \1  0x01              \2  0x02
//
// Any other escaped character stands for itself, so `\\` and `\"` give a
// backslash and a quote. A trailing comma in a list is accepted.
//
// The encoder emits one record per line, indents nested objects with one tab
// per level, and escapes exactly the characters listed above plus the
// backslash and the quote. Parsing the encoder's output yields an equal tree.
//
// # Error Recovery
//
// The parser builds each record bottom-up and attaches it to its parent only
// once the record is complete. Every partially built node is registered with
// a tracker while under construction. A grammar error unwinds the parse with
// a panic that is recovered at the top level, which resets everything still
// tracked and returns a *ParseError carrying line and column.
//
// # Writes
//
// Database.Write and Database.Save write into a temporary file next to the
// database file, sync it, and rename it into place. If the write hook fails
// or leaves objects open, the temporary file is removed and the database file
// is not touched.
package gsdb
