package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"techstore/internal/domain"
)

// Record is the persisted form of a cart snapshot.
type Record struct {
	Version int64             `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Items   []domain.CartLine `json:"items"`
}

func (r Record) Empty() bool { return len(r.Items) == 0 }

func Encode(r Record) ([]byte, error) {
	if r.Items == nil {
		r.Items = []domain.CartLine{}
	}
	return json.Marshal(r)
}

// Decode accepts the versioned envelope and also a bare JSON array of lines.
// Lines sharing a product id are merged so the one-line-per-product rule holds.
func Decode(data []byte) (Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Record{}, errors.New("cart: empty payload")
	}
	var rec Record
	if data[0] == '[' {
		if err := json.Unmarshal(data, &rec.Items); err != nil {
			return Record{}, fmt.Errorf("cart: decode lines: %w", err)
		}
	} else if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("cart: decode record: %w", err)
	}

	merged := make([]domain.CartLine, 0, len(rec.Items))
	index := make(map[string]int, len(rec.Items))
	for i, line := range rec.Items {
		if line.Product.ID == "" {
			return Record{}, fmt.Errorf("cart: line %d has no product id", i)
		}
		if line.Quantity < 1 {
			return Record{}, fmt.Errorf("cart: line %d has quantity %d", i, line.Quantity)
		}
		if at, ok := index[line.Product.ID]; ok {
			merged[at].Quantity += line.Quantity
			if line.Notes != "" {
				merged[at].Notes = line.Notes
			}
			continue
		}
		index[line.Product.ID] = len(merged)
		merged = append(merged, line)
	}
	rec.Items = merged
	return rec, nil
}

func cloneLines(in []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(in))
	for i, l := range in {
		out[i] = l
		if l.Product.Images != nil {
			out[i].Product.Images = append([]string(nil), l.Product.Images...)
		}
	}
	return out
}
