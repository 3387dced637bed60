// Package conf reads program settings from a text database, addressing
// values by slash-delimited paths such as "sshkey/pub".
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gamesurge/gsdb"
)

const (
	DefaultFileName = ".gsdb.conf"
	EnvPath         = "GSDB_CONFIG"
)

// Config is a read-only view of a parsed configuration file. A nil *Config
// behaves like an empty one.
type Config struct {
	path string
	root *gsdb.Object
}

// New wraps an existing tree.
func New(root *gsdb.Object) *Config {
	if root == nil {
		root = gsdb.NewObject()
	}
	return &Config{root: root}
}

func Load(path string) (*Config, error) {
	return LoadOptions(path, gsdb.Options{})
}

func LoadOptions(path string, opt gsdb.Options) (*Config, error) {
	root, err := gsdb.LoadOptions(path, opt)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}
	return &Config{path: path, root: root}, nil
}

// LoadOptional is like LoadOptions, but a missing file yields an empty
// configuration.
func LoadOptional(path string, opt gsdb.Options) (*Config, error) {
	c, err := LoadOptions(path, opt)
	if errors.Is(err, os.ErrNotExist) {
		c = New(nil)
		c.path = path
		return c, nil
	}
	return c, err
}

// DefaultPath returns $GSDB_CONFIG if set, or ~/.gsdb.conf.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

func (c *Config) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

func (c *Config) Root() *gsdb.Object {
	if c == nil {
		return nil
	}
	return c.root
}

// Node returns the raw node at path, or nil.
func (c *Config) Node(path string) *gsdb.Value {
	return c.Root().Fetch(path)
}

func (c *Config) Str(path string) (string, bool) {
	return c.Root().FetchString(path)
}

func (c *Config) StrDefault(path, def string) string {
	if s, ok := c.Str(path); ok {
		return s
	}
	return def
}

func (c *Config) List(path string) []string {
	l, _ := c.Root().FetchList(path)
	return l
}

func (c *Config) Object(path string) *gsdb.Object {
	return c.Root().FetchObject(path)
}

// Bool reports whether the string at path spells a true value. Missing
// values are false.
func (c *Config) Bool(path string) bool {
	s, ok := c.Str(path)
	return ok && TrueString(s)
}

// Int parses the string at path as a decimal integer, returning def if it
// is missing or malformed.
func (c *Config) Int(path string, def int) int {
	s, ok := c.Str(path)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// Expand returns the string at path with $1..$N replaced by args.
func (c *Config) Expand(path string, args ...string) (string, bool) {
	s, ok := c.Str(path)
	if !ok {
		return "", false
	}
	return ExpandArgs(s, args...), true
}

// MissingError lists configuration strings that had to be present.
type MissingError struct {
	File  string
	Paths []string
}

func (e *MissingError) Error() string {
	file := e.File
	if file == "" {
		file = "config"
	}
	return fmt.Sprintf("%s: missing %s", file, strings.Join(e.Paths, ", "))
}

// Required fails with *MissingError unless every path holds a string.
func (c *Config) Required(paths ...string) error {
	var missing []string
	for _, p := range paths {
		if _, ok := c.Str(p); !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &MissingError{File: c.Path(), Paths: missing}
	}
	return nil
}

// TrueString accepts on, true, yes, y (any case) and 1.
func TrueString(s string) bool {
	switch {
	case s == "1":
		return true
	case strings.EqualFold(s, "on"), strings.EqualFold(s, "true"), strings.EqualFold(s, "yes"), strings.EqualFold(s, "y"):
		return true
	default:
		return false
	}
}

// FalseString accepts off, false, no, n (any case) and 0.
func FalseString(s string) bool {
	switch {
	case s == "0":
		return true
	case strings.EqualFold(s, "off"), strings.EqualFold(s, "false"), strings.EqualFold(s, "no"), strings.EqualFold(s, "n"):
		return true
	default:
		return false
	}
}

// ExpandArgs replaces $1..$N in s with the corresponding args. A dollar
// sign followed by 0, an out-of-range index, or no digit is kept as is.
func ExpandArgs(s string, args ...string) string {
	var buf strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' || i+1 >= len(s) || !isDigit(s[i+1]) {
			buf.WriteByte(s[i])
			i++
			continue
		}
		end := i + 1
		for end < len(s) && isDigit(s[end]) {
			end++
		}
		idx, err := strconv.Atoi(s[i+1 : end])
		if err != nil || idx == 0 || idx > len(args) {
			buf.WriteByte('$')
			i++
			continue
		}
		buf.WriteString(args[idx-1])
		i = end
	}
	return buf.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
