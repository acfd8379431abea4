package bvbrc

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/boltdb/bolt"
	"gopkg.in/vmihailenco/msgpack.v2"
)

var fetchBucket = []byte("fetches")

// JournalEntry is the last recorded outcome for one file.
type JournalEntry struct {
	RunID      string `msgpack:"run_id"`
	GenomeID   string `msgpack:"genome_id"`
	Kind       string `msgpack:"kind"`
	Filename   string `msgpack:"filename"`
	OK         bool   `msgpack:"ok"`
	Error      string `msgpack:"error"`
	Bytes      int64  `msgpack:"bytes"`
	FinishedAt int64  `msgpack:"finished_at"` // unix nanoseconds
}

// Finished returns FinishedAt as a time.
func (e JournalEntry) Finished() time.Time {
	return time.Unix(0, e.FinishedAt)
}

// Journal is a bolt database of fetch outcomes keyed by genome/filename.
type Journal struct {
	db *bolt.DB
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fetchBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func journalPrefix(genomeID string) []byte {
	if genomeID == "" {
		genomeID = "_repository"
	}
	return []byte(genomeID + "/")
}

func journalKey(genomeID, filename string) []byte {
	return append(journalPrefix(genomeID), path.Base(filename)...)
}

// Record stores res, replacing any earlier outcome for the same file.
func (j *Journal) Record(runID string, res FetchResult) error {
	e := JournalEntry{
		RunID:      runID,
		GenomeID:   res.Job.GenomeID,
		Kind:       string(res.Job.Kind),
		Filename:   path.Base(res.Job.Filename),
		OK:         res.OK(),
		Bytes:      res.Bytes,
		FinishedAt: res.Finished.UnixNano(),
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}

	v, err := msgpack.Marshal(&e)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fetchBucket).Put(journalKey(res.Job.GenomeID, res.Job.Filename), v)
	})
}

// Entries returns the recorded outcomes for genomeID, ordered by filename.
func (j *Journal) Entries(genomeID string) ([]JournalEntry, error) {
	prefix := journalPrefix(genomeID)
	var entries []JournalEntry
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(fetchBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var e JournalEntry
			if err := msgpack.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Failures returns the entries for genomeID whose last attempt failed.
func (j *Journal) Failures(genomeID string) ([]JournalEntry, error) {
	entries, err := j.Entries(genomeID)
	if err != nil {
		return nil, err
	}
	var failed []JournalEntry
	for _, e := range entries {
		if !e.OK {
			failed = append(failed, e)
		}
	}
	return failed, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
