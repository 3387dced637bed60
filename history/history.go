// Package history keeps past revisions of text databases, one bucket per
// database, in Bolt or in memory.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/gamesurge/gsdb"
)

// Revision is the full text of one database write.
type Revision struct {
	Seq      uint64    `msgpack:"-"`
	ID       uuid.UUID `msgpack:"id"`
	Database string    `msgpack:"db"`
	Time     time.Time `msgpack:"tm"`
	Checksum uint64    `msgpack:"sum"`
	Text     []byte    `msgpack:"text"`
}

// Name identifies the revision in messages, e.g. "local@12".
func (r *Revision) Name() string {
	return fmt.Sprintf("%s@%d", r.Database, r.Seq)
}

// ShortID returns the first eight hex digits of the revision ID.
func (r *Revision) ShortID() string {
	return r.ID.String()[:8]
}

// Root parses the revision text back into a tree.
func (r *Revision) Root() (*gsdb.Object, error) {
	return gsdb.Parse(r.Name(), r.Text)
}

type Options struct {
	Context context.Context
	Logger  *slog.Logger
	Verbose bool
	Now     func() time.Time

	// Keep limits the number of revisions kept per database. Zero keeps
	// everything.
	Keep int

	// NoSync disables fsync in the Bolt backend. Only for tests.
	NoSync bool
}

func (o *Options) fillDefaults() {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Store is safe for concurrent use.
type Store struct {
	st      storage
	ctx     context.Context
	logger  *slog.Logger
	verbose bool
	now     func() time.Time
	keep    int
}

func newStore(st storage, opt Options) *Store {
	return &Store{
		st:      st,
		ctx:     opt.Context,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		now:     opt.Now,
		keep:    opt.Keep,
	}
}

// OpenBolt opens (creating if needed) a Bolt-backed store at path.
func OpenBolt(path string, opt Options) (*Store, error) {
	opt.fillDefaults()
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 5 * time.Second
	bopt.NoSync = opt.NoSync

	bdb, err := bbolt.Open(path, 0o600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return newStore(newBoltStorage(bdb), opt), nil
}

// NewMemory returns a store that lives only as long as the process.
func NewMemory(opt Options) *Store {
	opt.fillDefaults()
	return newStore(newMemStorage(), opt)
}

func (s *Store) Close() error {
	return s.st.Close()
}

func bucketName(db string) string {
	return strings.ToLower(db)
}

func (s *Store) view(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer tx.Rollback()
	return f(tx)
}

func (s *Store) update(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Add stores text as a new revision of db, unless it is identical to the
// latest one. It returns the latest revision and whether it was added.
func (s *Store) Add(db string, text []byte) (*Revision, bool, error) {
	sum := xxhash.Sum64(text)
	var rev *Revision
	var added bool
	err := s.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(bucketName(db))
		if err != nil {
			return err
		}
		if k, v := b.Cursor().Last(); k != nil {
			latest, err := decodeRevision(k, v)
			if err != nil {
				return err
			}
			if latest.Checksum == sum {
				rev = latest
				return nil
			}
		}

		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rev = &Revision{
			Seq:      seq,
			ID:       id,
			Database: db,
			Time:     s.now(),
			Checksum: sum,
			Text:     slices.Clone(text),
		}
		if err := b.Put(seqKey(seq), encodeRevision(rev)); err != nil {
			return err
		}
		added = true

		if s.keep > 0 {
			_, err = prune(b, s.keep)
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if s.verbose {
		s.logger.LogAttrs(s.ctx, slog.LevelDebug, "history: recorded", slog.String("db", db), slog.Uint64("seq", rev.Seq), slog.Bool("added", added))
	}
	return rev, added, nil
}

// Record implements gsdb.Recorder.
func (s *Store) Record(db string, text []byte) error {
	_, _, err := s.Add(db, text)
	return err
}

var _ gsdb.Recorder = (*Store)(nil)

func notFound(db string) error {
	return fmt.Errorf("history: %s: %w", db, gsdb.ErrNotFound)
}

func (s *Store) Latest(db string) (*Revision, error) {
	var rev *Revision
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucketName(db))
		if b == nil {
			return notFound(db)
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return notFound(db)
		}
		var err error
		rev, err = decodeRevision(k, v)
		return err
	})
	return rev, err
}

func (s *Store) Get(db string, seq uint64) (*Revision, error) {
	var rev *Revision
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucketName(db))
		if b == nil {
			return notFound(db)
		}
		k := seqKey(seq)
		v := b.Get(k)
		if v == nil {
			return notFound(fmt.Sprintf("%s@%d", db, seq))
		}
		var err error
		rev, err = decodeRevision(k, v)
		return err
	})
	return rev, err
}

// List returns every stored revision of db, oldest first.
func (s *Store) List(db string) ([]*Revision, error) {
	var revs []*Revision
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucketName(db))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			rev, err := decodeRevision(k, v)
			if err != nil {
				return err
			}
			revs = append(revs, rev)
		}
		return nil
	})
	return revs, err
}

// Databases returns the names of all databases with at least one revision,
// spelled as in their latest revision.
func (s *Store) Databases() ([]string, error) {
	var names []string
	err := s.view(func(tx storageTx) error {
		for _, bn := range tx.BucketNames() {
			k, v := tx.Bucket(bn).Cursor().Last()
			if k == nil {
				continue
			}
			rev, err := decodeRevision(k, v)
			if err != nil {
				return err
			}
			names = append(names, rev.Database)
		}
		return nil
	})
	return names, err
}

// Prune deletes all but the newest keep revisions of db and returns the
// number deleted.
func (s *Store) Prune(db string, keep int) (int, error) {
	if keep < 0 {
		return 0, errors.New("history: negative keep count")
	}
	var n int
	err := s.update(func(tx storageTx) error {
		b := tx.Bucket(bucketName(db))
		if b == nil {
			return nil
		}
		var err error
		n, err = prune(b, keep)
		return err
	})
	return n, err
}

func prune(b storageBucket, keep int) (int, error) {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
		keys = append(keys, slices.Clone(k))
	}
	if len(keys) <= keep {
		return 0, nil
	}
	for _, k := range keys[keep:] {
		if err := b.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys) - keep, nil
}

// Drop deletes every revision of db.
func (s *Store) Drop(db string) error {
	return s.update(func(tx storageTx) error {
		err := tx.DeleteBucket(bucketName(db))
		if errors.Is(err, errBucketNotFound) {
			return notFound(db)
		}
		return err
	})
}
