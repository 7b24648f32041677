package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The record always marshals to exactly the sixteen known keys, in
// declaration order, regardless of how many fields were resolved.
func TestOrderKeySet(t *testing.T) {
	b, err := json.Marshal(ExtractedOrder{})
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m, FieldCount)
	for _, key := range FieldKeys {
		_, ok := m[key]
		assert.True(t, ok, key)
	}
}

func TestFieldKeysMatchValues(t *testing.T) {
	assert.Len(t, FieldKeys, FieldCount)
	assert.Len(t, ExtractedOrder{}.Values(), FieldCount)
}

func TestExtractedCount(t *testing.T) {
	o := ExtractedOrder{OrderCode: "251109-349689618030662", Receiver: "郑传宝"}
	assert.Equal(t, 2, o.ExtractedCount())
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  郑传宝 ", "郑传宝"},
		{"：￥0.89：", "0.89"},
		{"超厚  条纹\t抹布", "超厚 条纹 抹布"},
		{"", ""},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, postProcess(tt.in), "%q", tt.in)
	}
}

func TestPostProcessIdempotent(t *testing.T) {
	for _, s := range []string{"郑传宝", "：￥0.89：", "  a  b  "} {
		once := postProcess(s)
		assert.Equal(t, once, postProcess(once))
	}
}

// Parsing the same input twice yields identical records.
func TestParseDeterministic(t *testing.T) {
	p := NewParser(DefaultVariant())
	assert.Equal(t, p.ParseLines(pickupLines), p.ParseLines(pickupLines))
}
