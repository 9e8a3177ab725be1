package index

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

var ErrNotFound = errors.New("not found")

type ListOptions struct {
	Page int
	Size int
}

func (s *Store) Get(slug string) (content.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return content.Post{}, ErrNotFound
	}
	var p content.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bPosts)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(slug))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &p)
	})
	return p, err
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// scan walks a published-key bucket newest first, skipping and collecting
// per opt. limit < 0 collects everything.
func scan(idx, postsB *bolt.Bucket, skip, limit int) ([]content.Post, error) {
	var out []content.Post
	cur := idx.Cursor()
	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		slug := slugFromTimeSlugKey(k)
		if slug == "" {
			continue
		}
		v := postsB.Get([]byte(slug))
		if v == nil {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		var p content.Post
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
		if limit >= 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) List(opt ListOptions) ([]content.Post, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)
	var out []content.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxPublished)
		postsB := tx.Bucket(bPosts)
		if idx == nil || postsB == nil {
			return nil
		}
		var err error
		out, err = scan(idx, postsB, (opt.Page-1)*opt.Size, opt.Size)
		return err
	})
	return out, err
}

// All returns every post, newest first.
func (s *Store) All() ([]content.Post, error) {
	var out []content.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxPublished)
		postsB := tx.Bucket(bPosts)
		if idx == nil || postsB == nil {
			return nil
		}
		var err error
		out, err = scan(idx, postsB, 0, -1)
		return err
	})
	return out, err
}

func (s *Store) listSub(parentName []byte, name string, opt ListOptions) ([]content.Post, error) {
	if name == "" {
		return nil, nil
	}
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []content.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(parentName)
		postsB := tx.Bucket(bPosts)
		if parent == nil || postsB == nil {
			return nil
		}
		sb := parent.Bucket([]byte(name))
		if sb == nil {
			return nil
		}
		var err error
		out, err = scan(sb, postsB, (opt.Page-1)*opt.Size, opt.Size)
		return err
	})
	return out, err
}

func (s *Store) ListByCategory(cat string, opt ListOptions) ([]content.Post, error) {
	return s.listSub(bIdxCat, strings.TrimSpace(cat), opt)
}

func (s *Store) ListByTag(tag string, opt ListOptions) ([]content.Post, error) {
	return s.listSub(bIdxTag, strings.TrimSpace(tag), opt)
}

func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bPosts); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Version is the sequence assigned by the last Rebuild, 0 before the first.
func (s *Store) Version() (uint64, error) {
	var v uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bMeta); b != nil {
			v = b.Sequence()
		}
		return nil
	})
	return v, err
}

func (s *Store) BuiltAt() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return nil
		}
		if v := b.Get(kBuiltAt); v != nil {
			return t.UnmarshalText(v)
		}
		return nil
	})
	return t, err
}

func (s *Store) summaries(parentName []byte) ([]TermSummary, error) {
	var out []TermSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(parentName)
		if parent == nil {
			return nil
		}
		return parent.ForEach(func(k, v []byte) error {
			sb := parent.Bucket(k)
			if sb == nil {
				return nil
			}
			sum := TermSummary{Name: string(k)}
			c := sb.Cursor()
			for key, _ := c.First(); key != nil; key, _ = c.Next() {
				if sum.Count == 0 {
					sum.Latest = time.Unix(0, timeFromTimeSlugKey(key)).UTC()
				}
				sum.Count++
			}
			out = append(out, sum)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// CategorySummaries lists categories by post count, then name.
func (s *Store) CategorySummaries() ([]TermSummary, error) {
	return s.summaries(bIdxCat)
}

// TagSummaries lists tags by post count, then name.
func (s *Store) TagSummaries() ([]TermSummary, error) {
	return s.summaries(bIdxTag)
}
