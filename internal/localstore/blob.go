package localstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/goccy/go-json"
)

var ErrInvalidBlob = errors.New("invalid state blob")

// Blob is the persisted layout of the whole tracker state. Field names are
// shared with export files, so an export can be imported back unchanged.
type Blob struct {
	IDCounter int64           `json:"pointIdCounter"`
	Points    []models.Record `json:"points"`
	Deleted   []models.Record `json:"deletedPoints"`
}

// BlobFromSnapshot flattens s. Both collections are always present in the
// result, even when empty.
func BlobFromSnapshot(s models.Snapshot) Blob {
	b := Blob{
		IDCounter: s.IDCounter,
		Points:    make([]models.Record, 0, len(s.Active)),
		Deleted:   make([]models.Record, 0, len(s.Resolved)),
	}
	for _, p := range s.Active {
		b.Points = append(b.Points, models.RecordFromPoint(p))
	}
	for _, p := range s.Resolved {
		b.Deleted = append(b.Deleted, models.RecordFromPoint(p))
	}
	return b
}

// DecodeBlob parses raw into a Blob.
func DecodeBlob(raw []byte) (Blob, error) {
	var b Blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return b, nil
}

// EncodeBlob serialises b.
func EncodeBlob(b Blob) ([]byte, error) {
	return json.Marshal(b)
}

// ValidateImport checks that raw is a JSON object carrying a points array.
// The deleted collection and the counter are optional.
func ValidateImport(raw []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidBlob)
	}

	field, ok := probe["points"]
	if !ok {
		return fmt.Errorf("%w: missing points", ErrInvalidBlob)
	}

	var points []json.RawMessage
	if err := json.Unmarshal(field, &points); err != nil || points == nil {
		return fmt.Errorf("%w: points is not an array", ErrInvalidBlob)
	}
	return nil
}

// Snapshot rebuilds the in-memory state from b. Records that cannot be
// decoded, and records whose id was already seen, are skipped and counted.
// A missing or non-positive counter becomes 1.
func (b Blob) Snapshot(now time.Time) (models.Snapshot, int) {
	s := models.Snapshot{
		IDCounter: b.IDCounter,
		Active:    make([]models.Point, 0, len(b.Points)),
		Resolved:  make([]models.Point, 0, len(b.Deleted)),
	}
	if s.IDCounter < 1 {
		s.IDCounter = 1
	}

	seen := make(map[int64]struct{}, len(b.Points)+len(b.Deleted))
	skipped := 0

	decode := func(recs []models.Record, resolved bool) []models.Point {
		out := make([]models.Point, 0, len(recs))
		for _, r := range recs {
			p, err := r.ToPoint(now, resolved)
			if err != nil {
				skipped++
				continue
			}
			if _, dup := seen[p.ID]; dup {
				skipped++
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
		return out
	}

	s.Active = decode(b.Points, false)
	s.Resolved = decode(b.Deleted, true)
	return s, skipped
}
