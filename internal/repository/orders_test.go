package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/entity"
)

func testRepo(t *testing.T) OrderRepository {
	t.Helper()
	db, err := Open(common.DatabaseConfig{
		DSN:             "sqlite://" + filepath.Join(t.TempDir(), "orders.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		MaxConnLifetime: time.Minute,
	})
	require.NoError(t, err)
	return NewOrderRepository(db)
}

func sampleOrder(code string) *entity.Order {
	return &entity.Order{
		UploadUser:       "张三",
		OrderCode:        code,
		ProductName:      "超厚条纹厨房抹布",
		ProductPrice:     "0.89",
		AmountPaid:       "0.89",
		LogisticsCompany: "韵达",
		TrackingNumber:   "464841042250593",
		OrderStatus:      "待取件",
		Receiver:         "郑传宝",
		Contact:          "134****9326",
		ShippingAddress:  "九佛街道九佛育才路900号信科大院101号",
		ShopName:         "森森家具百货店",
		OrderTime:        "2025-11-09 19:42:41",
	}
}

func TestOrderRepositoryCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	order := sampleOrder("251109-349689618030662")
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEmpty(t, order.ID)

	got, err := repo.GetByCode(ctx, "251109-349689618030662")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, "郑传宝", got.Receiver)

	byID, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, got.OrderCode, byID.OrderCode)
}

func TestOrderRepositoryDuplicateCode(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleOrder("251109-349689618030662")))
	err := repo.Create(ctx, sampleOrder("251109-349689618030662"))
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestOrderRepositoryGetMissing(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByCode(ctx, "000000-000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOrderRepositoryList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := sampleOrder("251109-000000000000001")
	b := sampleOrder("251109-000000000000002")
	b.UploadUser = "李四"
	b.ProductName = "不锈钢保温杯"
	b.OrderTime = "2025-11-10 08:00:00"
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	all, total, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	byKeyword, total, err := repo.List(ctx, ListFilter{Keyword: "保温杯"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, b.OrderCode, byKeyword[0].OrderCode)

	byUser, _, err := repo.List(ctx, ListFilter{UploadUser: "李四"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "李四", byUser[0].UploadUser)

	byDate, _, err := repo.List(ctx, ListFilter{DateFrom: "2025-11-10", DateTo: "2025-11-10"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, b.OrderCode, byDate[0].OrderCode)

	paged, total, err := repo.List(ctx, ListFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, paged, 1)
}

func TestOrderRepositoryUpdate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	order := sampleOrder("251109-349689618030662")
	require.NoError(t, repo.Create(ctx, order))

	order.OrderStatus = "已签收"
	require.NoError(t, repo.Update(ctx, order))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "已签收", got.OrderStatus)

	missing := sampleOrder("251109-000000000000009")
	missing.ID = "no-such-id"
	assert.ErrorIs(t, repo.Update(ctx, missing), common.ErrNotFound)
}

func TestOrderRepositoryDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := sampleOrder("251109-000000000000001")
	b := sampleOrder("251109-000000000000002")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	n, err := repo.Delete(ctx, []string{a.ID, b.ID, "no-such-id"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, _, err = repo.List(ctx, ListFilter{})
	require.NoError(t, err)

	n, err = repo.Delete(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
