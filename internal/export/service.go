// Package export renders recognized orders as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haoxuny/orderscan/internal/repository"
)

// Service is a tiny façade over the order repository that produces XLSX
// bytes for exports.
type Service struct {
	orders    repository.OrderRepository
	sheetName string
	logger    *slog.Logger
}

func NewService(orders repository.OrderRepository, sheetName string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sheetName == "" {
		sheetName = "订单数据"
	}
	return &Service{orders: orders, sheetName: sheetName, logger: logger}
}

// Column headers as shown in the downloaded spreadsheet.
var headers = []string{
	"订单编号",
	"上传者",
	"商品名称",
	"规格",
	"商品价格",
	"实付金额",
	"支付方式",
	"物流公司",
	"快递单号",
	"订单状态",
	"收件人",
	"联系电话",
	"收货地址",
	"店铺名称",
	"下单时间",
	"拼单时间",
	"发货时间",
}

// ExportOrdersXLSX returns an XLSX workbook for every order matching the
// filter. Pagination in the filter is ignored: an export always covers the
// full match set.
func (s *Service) ExportOrdersXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error) {
	start := time.Now()

	filter.Page = 1
	filter.PageSize = 200

	f := excelize.NewFile()
	sheet := s.sheetName
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultSheet := f.GetSheetName(0); defaultSheet != sheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	total := 0
	for {
		orders, _, err := s.orders.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		for _, o := range orders {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			values := []string{
				o.OrderCode,
				o.UploadUser,
				o.ProductName,
				o.Specification,
				o.ProductPrice,
				o.AmountPaid,
				o.PaymentMethod,
				o.LogisticsCompany,
				o.TrackingNumber,
				o.OrderStatus,
				o.Receiver,
				o.Contact,
				o.ShippingAddress,
				o.ShopName,
				o.OrderTime,
				o.GroupTime,
				o.ShipTime,
			}
			for col, v := range values {
				write(col+1, v)
			}
			row++
		}
		total += len(orders)
		if len(orders) < filter.PageSize {
			break
		}
		filter.Page++
	}

	// Keep the header visible while scrolling.
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	// Widen the columns that carry long text.
	_ = f.SetColWidth(sheet, "A", "A", 24) // order code
	_ = f.SetColWidth(sheet, "C", "C", 32) // product name
	_ = f.SetColWidth(sheet, "D", "D", 20) // specification
	_ = f.SetColWidth(sheet, "I", "I", 20) // tracking number
	_ = f.SetColWidth(sheet, "M", "M", 48) // address
	_ = f.SetColWidth(sheet, "N", "N", 24) // shop
	_ = f.SetColWidth(sheet, "O", "Q", 20) // timestamps

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
