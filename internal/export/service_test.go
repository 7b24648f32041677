package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/entity"
	"github.com/haoxuny/orderscan/internal/repository"
)

type stubOrders struct {
	orders []entity.Order
}

func (s *stubOrders) Create(context.Context, *entity.Order) error { return nil }
func (s *stubOrders) GetByID(context.Context, string) (*entity.Order, error) {
	return nil, common.ErrNotFound
}
func (s *stubOrders) GetByCode(context.Context, string) (*entity.Order, error) {
	return nil, common.ErrNotFound
}
func (s *stubOrders) Update(context.Context, *entity.Order) error { return nil }
func (s *stubOrders) Delete(context.Context, []string) (int64, error) {
	return 0, nil
}

func (s *stubOrders) List(_ context.Context, filter repository.ListFilter) ([]entity.Order, int64, error) {
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(s.orders) {
		return nil, int64(len(s.orders)), nil
	}
	end := start + filter.PageSize
	if end > len(s.orders) {
		end = len(s.orders)
	}
	return s.orders[start:end], int64(len(s.orders)), nil
}

func TestExportOrdersXLSX(t *testing.T) {
	repo := &stubOrders{orders: []entity.Order{
		{
			OrderCode:        "251109-349689618030662",
			UploadUser:       "张三",
			ProductName:      "超厚条纹厨房抹布",
			ProductPrice:     "0.89",
			LogisticsCompany: "韵达",
			TrackingNumber:   "464841042250593",
			OrderStatus:      "待取件",
			Receiver:         "郑传宝",
			OrderTime:        "2025-11-09 19:42:41",
		},
		{
			OrderCode:   "251110-000000000000001",
			UploadUser:  "李四",
			ProductName: "不锈钢保温杯",
			OrderStatus: "已签收",
		},
	}}

	svc := NewService(repo, "订单数据", nil)
	data, err := svc.ExportOrdersXLSX(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("订单数据")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "订单编号", rows[0][0])
	assert.Equal(t, "上传者", rows[0][1])
	assert.Equal(t, "发货时间", rows[0][16])

	assert.Equal(t, "251109-349689618030662", rows[1][0])
	assert.Equal(t, "张三", rows[1][1])
	assert.Equal(t, "韵达", rows[1][7])
	assert.Equal(t, "251110-000000000000001", rows[2][0])
}

func TestExportOrdersXLSXEmpty(t *testing.T) {
	svc := NewService(&stubOrders{}, "", nil)
	data, err := svc.ExportOrdersXLSX(context.Background(), repository.ListFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("订单数据")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
