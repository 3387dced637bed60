package gsdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/gamesurge/gsdb/mmap"
)

// ReadFunc is called after a database file has been parsed successfully.
// It typically copies what it needs out of db.Root().
type ReadFunc func(db *Database) error

// WriteFunc emits the contents of a database. Every BeginObject must be
// matched by an EndObject before it returns.
type WriteFunc func(db *Database, w RecordWriter) error

// Recorder receives the full text of every successful database write. text
// is only valid during the call.
type Recorder interface {
	Record(db string, text []byte) error
}

type Options struct {
	Context      context.Context
	Dir          string
	FileName     string // defaults to "<name>.db"
	TempFileName string // defaults to ".<name>.db.tmp"

	Read  ReadFunc
	Write WriteFunc

	// History, if set, is offered the text of each successful write.
	History Recorder

	Logger  *slog.Logger
	Verbose bool
	NoMmap  bool // always use buffered reads
	NoSync  bool // skip fdatasync before renaming the temp file

	wrapOutput func(io.Writer) io.Writer
}

func (o *Options) fillDefaults() {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Database is a named text database backed by a file, with optional read
// and write hooks.
type Database struct {
	name     string
	path     string
	tmpPath  string
	opt      Options
	logger   *slog.Logger
	root     *Object
	checksum uint64
	summed   bool
}

// New returns a handle for the database called name. Nothing is read until
// Read is called. The handle is not registered anywhere; see Registry.
func New(name string, opt Options) *Database {
	opt.fillDefaults()
	if opt.FileName == "" {
		opt.FileName = name + ".db"
	}
	if opt.TempFileName == "" {
		opt.TempFileName = "." + name + ".db.tmp"
	}
	return &Database{
		name:    name,
		path:    filepath.Join(opt.Dir, opt.FileName),
		tmpPath: filepath.Join(opt.Dir, opt.TempFileName),
		opt:     opt,
		logger:  opt.Logger,
	}
}

func (db *Database) Name() string {
	return db.name
}

func (db *Database) String() string {
	return db.name
}

func (db *Database) Path() string {
	return db.path
}

func (db *Database) TempPath() string {
	return db.tmpPath
}

// Root returns the tree loaded by the last Read, or nil.
func (db *Database) Root() *Object {
	return db.root
}

// SetRoot replaces the tree that Save writes.
func (db *Database) SetRoot(root *Object) {
	db.root = root
}

// Checksum returns the xxhash of the file contents seen by the last
// successful Read or Write.
func (db *Database) Checksum() (uint64, bool) {
	return db.checksum, db.summed
}

// Read parses the database file and runs the read hook. If discard is set,
// the tree is dropped once the hook returns.
func (db *Database) Read(discard bool) error {
	if db.opt.Verbose {
		db.logger.LogAttrs(db.opt.Context, slog.LevelDebug, "gsdb: reading", slog.String("db", db.name), slog.String("file", db.path))
	}
	src, err := openFileSource(db.opt.Context, db.path, db.opt.NoMmap, db.logger)
	if err != nil {
		return dbErrf(db.name, "read", err, "")
	}
	defer src.close()

	root, stats, err := parseSource(db.opt.Context, db.name, src, db.logger, db.opt.Verbose)
	if err != nil {
		db.logger.LogAttrs(db.opt.Context, slog.LevelError, "gsdb: read failed", slog.String("db", db.name), slog.Any("err", err))
		return err
	}
	db.root = root
	db.checksum, db.summed = src.checksum(), true

	if db.opt.Read != nil {
		if err := db.opt.Read(db); err != nil {
			return dbErrf(db.name, "read", err, "read function failed")
		}
	}
	if discard {
		db.root = nil
	}
	if db.opt.Verbose {
		db.logger.LogAttrs(db.opt.Context, slog.LevelDebug, "gsdb: read", slog.String("db", db.name), slog.Int("records", root.Len()), slog.Int("allocs", stats.Tracked))
	}
	return nil
}

// Write runs the write hook into a temporary file and renames it over the
// database file. On any failure the temporary file is removed and the
// database file is left untouched.
func (db *Database) Write() error {
	if db.opt.Write == nil {
		return dbErrf(db.name, "write", ErrNoWriteFunc, "")
	}
	return db.writeWith(db.opt.Write)
}

// Save writes the current tree (see Root and SetRoot) to the database file.
func (db *Database) Save() error {
	root := db.root
	if root == nil {
		root = NewObject()
	}
	return db.writeWith(func(_ *Database, w RecordWriter) error {
		w.WriteRecords(root)
		return nil
	})
}

// Snapshot runs the write hook into a Builder and returns the resulting
// tree without touching the disk.
func (db *Database) Snapshot() (*Object, error) {
	if db.opt.Write == nil {
		return nil, dbErrf(db.name, "snapshot", ErrNoWriteFunc, "")
	}
	b := NewBuilder(db.name)
	if err := db.opt.Write(db, b); err != nil {
		return nil, dbErrf(db.name, "snapshot", err, "write function failed")
	}
	return b.Finish()
}

func (db *Database) writeWith(fn WriteFunc) error {
	ctx := db.opt.Context
	if db.opt.Verbose {
		db.logger.LogAttrs(ctx, slog.LevelDebug, "gsdb: writing", slog.String("db", db.name), slog.String("file", db.tmpPath))
	}

	err := db.writeTemp(fn)
	if err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "gsdb: write failed", slog.String("db", db.name), slog.Any("err", err))
		if rmErr := os.Remove(db.tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			db.logger.LogAttrs(ctx, slog.LevelWarn, "gsdb: cannot remove temp file", slog.String("db", db.name), slog.Any("err", rmErr))
		}
	}
	return err
}

// callWriteFunc runs fn, turning a panic (such as an unmatched EndObject)
// into an error so the caller can clean up the temp file.
func callWriteFunc(fn WriteFunc, db *Database, enc *Encoder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWriteFuncPanicked, r)
		}
	}()
	return fn(db, enc)
}

func (db *Database) writeTemp(fn WriteFunc) error {
	f, err := os.OpenFile(db.tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return dbErrf(db.name, "write", err, "")
	}
	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
	}()

	var out io.Writer = f
	if db.opt.wrapOutput != nil {
		out = db.opt.wrapOutput(out)
	}
	digest := xxhash.New()
	writers := []io.Writer{out, digest}
	var text *bytes.Buffer
	if db.opt.History != nil {
		text = textBufferPool.Get().(*bytes.Buffer)
		defer releaseTextBuffer(text)
		writers = append(writers, text)
	}

	enc := NewEncoder(io.MultiWriter(writers...))
	err = callWriteFunc(fn, db, enc)
	if errors.Is(err, ErrWriteFuncPanicked) {
		return dbErrf(db.name, "write", err, "")
	}
	if n := enc.Depth(); n != 0 {
		return &UnclosedObjectsError{Name: db.name, Count: n}
	}
	if err != nil {
		return dbErrf(db.name, "write", err, "write function failed")
	}
	if err := enc.Flush(); err != nil {
		return dbErrf(db.name, "write", err, "")
	}
	if !db.opt.NoSync {
		if err := mmap.Fdatasync(f); err != nil {
			return dbErrf(db.name, "sync", err, "")
		}
	}
	closed = true
	if err := f.Close(); err != nil {
		return dbErrf(db.name, "write", err, "")
	}
	if err := os.Rename(db.tmpPath, db.path); err != nil {
		return dbErrf(db.name, "rename", err, "")
	}

	db.checksum, db.summed = digest.Sum64(), true
	if db.opt.Verbose {
		db.logger.LogAttrs(db.opt.Context, slog.LevelDebug, "gsdb: written", slog.String("db", db.name), slog.String("file", db.path))
	}
	if text != nil {
		if err := db.opt.History.Record(db.name, text.Bytes()); err != nil {
			db.logger.LogAttrs(db.opt.Context, slog.LevelWarn, "gsdb: cannot record history", slog.String("db", db.name), slog.Any("err", err))
		}
	}
	return nil
}

// Changed reports whether the database file differs from what the last
// Read or Write saw. A handle that has never been read or written is
// always considered changed.
func (db *Database) Changed() (bool, error) {
	if !db.summed {
		return true, nil
	}
	data, err := os.ReadFile(db.path)
	if err != nil {
		return false, dbErrf(db.name, "stat", err, "")
	}
	return xxhash.Sum64(data) != db.checksum, nil
}

// Unload drops the in-memory tree.
func (db *Database) Unload() {
	db.root = nil
}
