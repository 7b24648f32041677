package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/entity"
	"github.com/haoxuny/orderscan/internal/pipeline"
	"github.com/haoxuny/orderscan/internal/repository"
)

// keyFields are the fields a useful order record cannot do without. Missing
// ones are reported back with the recognition quality.
var keyFields = []struct {
	name string
	get  func(*entity.Order) string
}{
	{"order_code", func(o *entity.Order) string { return o.OrderCode }},
	{"product_name", func(o *entity.Order) string { return o.ProductName }},
	{"amount_paid", func(o *entity.Order) string { return o.AmountPaid }},
	{"receiver", func(o *entity.Order) string { return o.Receiver }},
	{"contact", func(o *entity.Order) string { return o.Contact }},
	{"logistics_company", func(o *entity.Order) string { return o.LogisticsCompany }},
}

type recognitionInfo struct {
	Quality       string   `json:"quality"`
	FieldCount    int      `json:"field_count"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Method        string   `json:"method"`
	DurationMs    int64    `json:"duration_ms"`
}

func recognition(out pipeline.Outcome, order *entity.Order) recognitionInfo {
	info := recognitionInfo{
		Quality:    out.Quality,
		FieldCount: out.FieldCount,
		Method:     out.Method,
		DurationMs: out.Duration.Milliseconds(),
	}
	for _, f := range keyFields {
		if f.get(order) == "" {
			info.MissingFields = append(info.MissingFields, f.name)
		}
	}
	return info
}

func (s *Server) uploadOrder(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "image file is required")
		return
	}

	path, cleanup, err := s.saveUpload(c, file)
	if err != nil {
		s.logger.Error("upload.save.failed", "err", err)
		fail(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	user := uploadUser(c)
	out, err := s.processor.ProcessImage(c.Request.Context(), path, user)
	switch {
	case errors.Is(err, common.ErrDuplicate):
		cleanup()
		s.respondDuplicate(c, out)
		return
	case errors.Is(err, common.ErrNoOrderCode):
		cleanup()
		fail(c, http.StatusBadRequest, "no order code recognized, upload a clearer screenshot")
		return
	case err != nil:
		cleanup()
		s.logger.Error("upload.process.failed",
			"request_id", common.RequestIDFromContext(c.Request.Context()),
			"user", user,
			"err", err,
		)
		fail(c, http.StatusUnprocessableEntity, "recognition failed: "+err.Error())
		return
	}

	ok(c, gin.H{
		"order":       out.Saved,
		"recognition": recognition(out, out.Saved),
	})
}

func (s *Server) previewOrder(c *gin.Context) {
	if text := c.PostForm("text"); text != "" {
		out := s.processor.PreviewText(text)
		record := out.ToEntity("", "")
		ok(c, gin.H{
			"order":       record,
			"recognition": recognition(out, record),
		})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "image file or text is required")
		return
	}
	path, cleanup, err := s.saveUpload(c, file)
	if err != nil {
		s.logger.Error("preview.save.failed", "err", err)
		fail(c, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer cleanup()

	out, err := s.processor.Preview(c.Request.Context(), path)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "recognition failed: "+err.Error())
		return
	}
	record := out.ToEntity("", "")
	ok(c, gin.H{
		"order":       record,
		"recognition": recognition(out, record),
	})
}

func (s *Server) listOrders(c *gin.Context) {
	filter := listFilterFromQuery(c)
	orders, total, err := s.orders.List(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("orders.list.failed", "err", err)
		fail(c, http.StatusInternalServerError, "failed to list orders")
		return
	}
	ok(c, gin.H{
		"items": orders,
		"total": total,
		"page":  filter.Page,
	})
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.orders.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, common.ErrNotFound) {
		fail(c, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load order")
		return
	}
	ok(c, order)
}

func (s *Server) updateOrder(c *gin.Context) {
	order, err := s.orders.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, common.ErrNotFound) {
		fail(c, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load order")
		return
	}

	// Bind onto the loaded record so absent fields keep their values.
	if err := c.ShouldBindJSON(order); err != nil {
		fail(c, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	order.ID = c.Param("id")

	if err := s.orders.Update(c.Request.Context(), order); err != nil {
		s.logger.Error("orders.update.failed", "id", order.ID, "err", err)
		fail(c, http.StatusInternalServerError, "failed to update order")
		return
	}
	ok(c, order)
}

func (s *Server) deleteOrders(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		fail(c, http.StatusBadRequest, "ids is required")
		return
	}
	deleted, err := s.orders.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		s.logger.Error("orders.delete.failed", "err", err)
		fail(c, http.StatusInternalServerError, "failed to delete orders")
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (s *Server) exportOrders(c *gin.Context) {
	data, err := s.exporter.ExportOrdersXLSX(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		s.logger.Error("orders.export.failed", "err", err)
		fail(c, http.StatusInternalServerError, "failed to export orders")
		return
	}
	filename := "orders-" + time.Now().Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// respondDuplicate reports an order code that is already registered,
// including who uploaded it first.
func (s *Server) respondDuplicate(c *gin.Context, out pipeline.Outcome) {
	data := gin.H{"order_code": out.Order.OrderCode}
	if existing, err := s.orders.GetByCode(c.Request.Context(), out.Order.OrderCode); err == nil {
		data["uploaded_by"] = existing.UploadUser
		data["uploaded_at"] = existing.CreatedAt
	}
	failWithData(c, http.StatusConflict,
		fmt.Sprintf("order %s was already uploaded", out.Order.OrderCode), data)
}

func (s *Server) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, func(), error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", nil, err
	}
	ext := filepath.Ext(file.Filename)
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func listFilterFromQuery(c *gin.Context) repository.ListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return repository.ListFilter{
		Keyword:    c.Query("keyword"),
		UploadUser: c.Query("upload_user"),
		Status:     c.Query("status"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		Page:       page,
		PageSize:   size,
	}
}

