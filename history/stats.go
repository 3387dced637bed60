package history

import (
	"time"
)

// DatabaseStats summarizes the stored revisions of one database.
type DatabaseStats struct {
	Database  string
	Revisions int
	Latest    uint64
	TextSize  int
	EncSize   int
	First     time.Time
	Last      time.Time
}

// Overhead returns the bytes spent on encoding beyond the revision texts.
func (ds *DatabaseStats) Overhead() int {
	return ds.EncSize - ds.TextSize
}

// Stats returns per-database totals for every database with at least one
// revision, in bucket order.
func (s *Store) Stats() ([]DatabaseStats, error) {
	var result []DatabaseStats
	err := s.view(func(tx storageTx) error {
		for _, bn := range tx.BucketNames() {
			var ds DatabaseStats
			c := tx.Bucket(bn).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				rev, err := decodeRevision(k, v)
				if err != nil {
					return err
				}
				if ds.Revisions == 0 {
					ds.First = rev.Time
				}
				ds.Revisions++
				ds.Database = rev.Database
				ds.Latest = rev.Seq
				ds.Last = rev.Time
				ds.TextSize += len(rev.Text)
				ds.EncSize += len(v)
			}
			if ds.Revisions > 0 {
				result = append(result, ds)
			}
		}
		return nil
	})
	return result, err
}
