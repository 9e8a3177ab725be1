package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

// Rebuild replaces the whole catalog with posts in a single transaction and
// returns the new version. Versions are strictly increasing for the life of
// the database file.
func (s *Store) Rebuild(posts []content.Post) (uint64, error) {
	var version uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bPosts, bIdxPublished, bIdxTag, bIdxCat} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
				return err
			}
		}

		postsB, err := tx.CreateBucket(bPosts)
		if err != nil {
			return err
		}
		pubB, err := tx.CreateBucket(bIdxPublished)
		if err != nil {
			return err
		}
		tagB, err := tx.CreateBucket(bIdxTag)
		if err != nil {
			return err
		}
		catB, err := tx.CreateBucket(bIdxCat)
		if err != nil {
			return err
		}

		for _, p := range posts {
			if strings.TrimSpace(p.Slug) == "" {
				continue
			}
			if postsB.Get([]byte(p.Slug)) != nil {
				return fmt.Errorf("index: duplicate slug %q", p.Slug)
			}
			pb, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := postsB.Put([]byte(p.Slug), pb); err != nil {
				return err
			}

			key := makeTimeSlugKey(p.PublishedAt.UnixNano(), p.Slug)
			if err := pubB.Put(key, []byte{1}); err != nil {
				return err
			}

			for _, tag := range p.Tags {
				if tag == "" {
					continue
				}
				sb, err := tagB.CreateBucketIfNotExists([]byte(tag))
				if err != nil {
					return err
				}
				if err := sb.Put(key, []byte{1}); err != nil {
					return err
				}
			}

			if cat := strings.TrimSpace(p.Category); cat != "" {
				sb, err := catB.CreateBucketIfNotExists([]byte(cat))
				if err != nil {
					return err
				}
				if err := sb.Put(key, []byte{1}); err != nil {
					return err
				}
			}
		}

		meta := tx.Bucket(bMeta)
		if meta == nil {
			if meta, err = tx.CreateBucket(bMeta); err != nil {
				return err
			}
		}
		if version, err = meta.NextSequence(); err != nil {
			return err
		}
		builtAt, _ := time.Now().UTC().MarshalText()
		return meta.Put(kBuiltAt, builtAt)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}
