package votestore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/mapreduce"
	bolt "go.etcd.io/bbolt"
)

// keySep separates phrase and hostname in a vote key. Phrases are made of word
// characters only, so all keys of one phrase sort next to each other.
const keySep = 0x00

var present = []byte{1}

// Bolt stores votes in a bbolt file, one bucket per phrase partition.
// The key of a vote is phrase + 0x00 + hostname, so a repeated vote overwrites itself.
type Bolt struct {
	db     *bolt.DB
	path   string
	shards int
}

// OpenBolt opens or creates a vote file. Votes from an earlier run in the same
// file are discarded.
func OpenBolt(path string, shards int) (*Bolt, error) {
	if shards < 1 {
		shards = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create vote store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			stale = append(stale, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		for i := 0; i < shards; i++ {
			if _, err := tx.CreateBucketIfNotExists(bucketName(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare vote buckets: %w", err)
	}

	return &Bolt{db: db, path: path, shards: shards}, nil
}

func bucketName(partition int) []byte {
	return []byte(fmt.Sprintf("partition_%03d", partition))
}

func voteKey(phrase, hostname string) []byte {
	key := make([]byte, 0, len(phrase)+1+len(hostname))
	key = append(key, phrase...)
	key = append(key, keySep)
	return append(key, hostname...)
}

// Add writes the votes in one transaction. Concurrent callers are coalesced by bbolt's Batch.
func (b *Bolt) Add(observations []models.KeywordObservation) error {
	votes := mapreduce.Map(observations)
	if len(votes) == 0 {
		return nil
	}

	return b.db.Batch(func(tx *bolt.Tx) error {
		for phrase, hosts := range votes {
			bkt := tx.Bucket(bucketName(mapreduce.PartitionKey(phrase, b.shards)))
			if bkt == nil {
				return fmt.Errorf("bucket not found for phrase %q", phrase)
			}
			for host := range hosts {
				if err := bkt.Put(voteKey(phrase, host), present); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Counts scans every partition, counting consecutive keys that share a phrase.
func (b *Bolt) Counts() ([]models.AggregateCount, error) {
	var counts []models.AggregateCount
	err := b.db.View(func(tx *bolt.Tx) error {
		for i := 0; i < b.shards; i++ {
			bkt := tx.Bucket(bucketName(i))
			if bkt == nil {
				return fmt.Errorf("bucket not found: %s", bucketName(i))
			}

			var current []byte
			count := 0
			flush := func() {
				if count > 0 {
					counts = append(counts, models.AggregateCount{Phrase: string(current), Count: count})
				}
			}
			err := bkt.ForEach(func(k, _ []byte) error {
				sep := bytes.IndexByte(k, keySep)
				if sep < 0 {
					return fmt.Errorf("malformed vote key %q", k)
				}
				phrase := k[:sep]
				if count > 0 && bytes.Equal(phrase, current) {
					count++
					return nil
				}
				flush()
				current = append(current[:0], phrase...)
				count = 1
				return nil
			})
			if err != nil {
				return err
			}
			flush()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	mapreduce.SortCounts(counts)
	return counts, nil
}

// Close closes the database
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Path returns the vote file location.
func (b *Bolt) Path() string {
	return b.path
}
