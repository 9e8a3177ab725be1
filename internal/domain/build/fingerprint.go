package build

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// Fingerprint identifies one generated artifact set.
type Fingerprint struct {
	Files map[string]string `json:"files"` // artifact name -> sha256
	Hash  string            `json:"hash"`
}

func NewFingerprint() Fingerprint {
	return Fingerprint{Files: make(map[string]string)}
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (f *Fingerprint) Add(name string, data []byte) {
	if f.Files == nil {
		f.Files = make(map[string]string)
	}
	f.Files[name] = HashBytes(data)
}

// ComputeHash folds the per-file hashes in name order.
func (f *Fingerprint) ComputeHash() {
	names := make([]string, 0, len(f.Files))
	for name := range f.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(f.Files[name]))
		h.Write([]byte{'\n'})
	}
	f.Hash = hex.EncodeToString(h.Sum(nil))
}

// Manifest is written last; consumers compare Version to detect stale data.
type Manifest struct {
	Version     uint64      `json:"version"`
	BuildID     string      `json:"buildId"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Posts       int         `json:"posts"`
	Fingerprint Fingerprint `json:"fingerprint"`
}
