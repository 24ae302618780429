package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Envelope(t *testing.T) {
	rec, err := Decode([]byte(`{"version":4,"saved_at":"2026-01-02T03:04:05Z","items":[{"product":{"id":"p1","name_en":"A","price":"10","stock":3},"quantity":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Version)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "10", rec.Items[0].Product.Price.String())
}

func TestDecode_LegacyArrayMergesDuplicates(t *testing.T) {
	rec, err := Decode([]byte(`[
		{"product":{"id":"p1","price":"5","stock":1},"quantity":1},
		{"product":{"id":"p2","price":"7","stock":1},"quantity":1},
		{"product":{"id":"p1","price":"5","stock":1},"quantity":2,"notes":"gift"}
	]`))
	require.NoError(t, err)
	assert.Zero(t, rec.Version)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, 3, rec.Items[0].Quantity)
	assert.Equal(t, "gift", rec.Items[0].Notes)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"garbage":    "{not json",
		"no id":      `[{"product":{"id":""},"quantity":1}]`,
		"zero qty":   `[{"product":{"id":"p"},"quantity":0}]`,
		"wrong type": `"hello"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestEncode_EmptyItemsIsArray(t *testing.T) {
	b, err := Encode(Record{Version: 1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items":[]`)
}
