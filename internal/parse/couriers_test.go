package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyCourier(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"物流公司：韵达快递", "韵达"},
		{"物流公司：中通", "中通"},
		{"物流公司 EMS", "邮政"},
		{"物流公司：快递包", "邮政"},
		{"物流公司 shunfeng", "顺丰"},
		{"物流公司 sf速运", "顺丰"},
		{"物流公司：未知承运商", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, identifyCourier(tt.line), tt.line)
	}
}

func TestCourierFromTracking(t *testing.T) {
	tests := []struct {
		tracking string
		want     string
	}{
		{"464841042250593", "韵达"},
		{"777123456789012", "申通"},
		{"981123456789012", "邮政"},
		{"YT1234567890123", "圆通"},
		{"JD1234567890123", "京东"},
		{"SF1234567890123", "顺丰"},
		{"8812345678901", "圆通"},
		{"7512345678901", "中通"},
		{"9912345678901", "韵达"},
		{"991234567890", "申通"},
		{"99123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, courierFromTracking(tt.tracking), tt.tracking)
	}
}
