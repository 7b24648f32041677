package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/entity"
)

// ListFilter narrows and pages a List call. Zero values mean "no filter".
type ListFilter struct {
	Keyword    string // matches order code, product name, receiver or uploader
	UploadUser string
	Status     string
	DateFrom   string // inclusive, compared against OrderTime (YYYY-MM-DD)
	DateTo     string
	Page       int
	PageSize   int
}

// OrderRepository persists recognized orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByCode(ctx context.Context, orderCode string) (*entity.Order, error)
	List(ctx context.Context, filter ListFilter) ([]entity.Order, int64, error)
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, ids []string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository wraps the database handle.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order. A second order with the same non-empty code
// fails with ErrDuplicate.
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.OrderCode != "" {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Order{}).
			Where("order_code = ?", order.OrderCode).Count(&count).Error; err != nil {
			return common.WrapError(err, "check duplicate order")
		}
		if count > 0 {
			return common.ErrDuplicate
		}
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicate
		}
		return common.WrapError(err, "create order")
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "get order by id")
	}
	return &order, nil
}

func (r *orderRepository) GetByCode(ctx context.Context, orderCode string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).First(&order, "order_code = ?", orderCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "get order by code")
	}
	return &order, nil
}

// List returns one page of matching orders plus the unpaged match count,
// newest first.
func (r *orderRepository) List(ctx context.Context, filter ListFilter) ([]entity.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Order{})

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := "%" + kw + "%"
		q = q.Where(
			"order_code LIKE ? OR product_name LIKE ? OR receiver LIKE ? OR upload_user LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if filter.UploadUser != "" {
		q = q.Where("upload_user = ?", filter.UploadUser)
	}
	if filter.Status != "" {
		q = q.Where("order_status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		q = q.Where("order_time >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		// OrderTime strings sort lexicographically, so the day bound needs
		// the end-of-day suffix.
		q = q.Where("order_time <= ?", filter.DateTo+" 23:59:59")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, common.WrapError(err, "count orders")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 200 {
		size = 20
	}

	var orders []entity.Order
	err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, common.WrapError(err, "list orders")
	}
	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		return common.ErrInvalidInput
	}
	var existing entity.Order
	err := r.db.WithContext(ctx).First(&existing, "id = ?", order.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	if err != nil {
		return common.WrapError(err, "load order for update")
	}
	order.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return common.WrapError(err, "update order")
	}
	return nil
}

// Delete removes the orders with the given ids, returning how many existed.
func (r *orderRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&entity.Order{}, "id IN ?", ids)
	if res.Error != nil {
		return 0, common.WrapError(res.Error, "delete orders")
	}
	return res.RowsAffected, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
