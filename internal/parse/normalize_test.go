package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	lines := SplitLines("待取件\r\n森森家具百货店>\n\n￥0.89\r快递单号：464841042250593")
	assert.Equal(t, []string{"待取件", "森森家具百货店>", "￥0.89", "快递单号：464841042250593"}, lines)
}

func TestNormalizeLines(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "strips artifact glyphs",
			in:   []string{`©待取件™`, "«订单编号»：251109-349689618030662"},
			want: []string{"待取件", "订单编号：251109-349689618030662"},
		},
		{
			name: "strips expand tail",
			in:   []string{"九佛街道九佛育才路900号 展开 ▼"},
			want: []string{"九佛街道九佛育才路900号"},
		},
		{
			name: "collapses whitespace",
			in:   []string{"实付  ：  ￥0.89"},
			want: []string{"实付 ： ￥0.89"},
		},
		{
			name: "drops fragments shorter than two runes",
			in:   []string{"待取件", "a", "¥", "", "已签收"},
			want: []string{"待取件", "已签收"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLines(tt.in))
		})
	}
}

func TestFilterNoise(t *testing.T) {
	in := []string{"19:42 !#@ 5G", "待取件", "中国移动 5G GE", "森森家具百货店>"}
	assert.Equal(t, []string{"待取件", "森森家具百货店>"}, filterNoise(in))
}

func TestFilterNoiseNeverEmptiesDocument(t *testing.T) {
	in := []string{"19:42 !#@ 5G"}
	assert.Equal(t, in, filterNoise(in))
}
