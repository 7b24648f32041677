// Package entity holds the persisted data model.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is one recognized group-buying order. String order fields mirror the
// parser output verbatim; unresolved fields persist as empty strings.
type Order struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UploadUser records who submitted the screenshot.
	UploadUser string `gorm:"size:64;index" json:"upload_user"`

	OrderCode        string `gorm:"size:64;uniqueIndex" json:"order_code"`
	ProductName      string `gorm:"size:255" json:"product_name"`
	Specification    string `gorm:"size:255" json:"specification"`
	ProductPrice     string `gorm:"size:32" json:"product_price"`
	AmountPaid       string `gorm:"size:32" json:"amount_paid"`
	PaymentMethod    string `gorm:"size:32" json:"payment_method"`
	LogisticsCompany string `gorm:"size:32" json:"logistics_company"`
	TrackingNumber   string `gorm:"size:64;index" json:"tracking_number"`
	OrderStatus      string `gorm:"size:32" json:"order_status"`
	Receiver         string `gorm:"size:64" json:"receiver"`
	Contact          string `gorm:"size:32" json:"contact"`
	ShippingAddress  string `gorm:"size:512" json:"shipping_address"`
	ShopName         string `gorm:"size:128" json:"shop_name"`
	OrderTime        string `gorm:"size:32" json:"order_time"`
	GroupTime        string `gorm:"size:32" json:"group_time"`
	ShipTime         string `gorm:"size:32" json:"ship_time"`

	// SourceImage is the stored path of the uploaded screenshot, if kept.
	SourceImage string `gorm:"size:512" json:"source_image,omitempty"`

	// OCRText keeps the raw recognized text so an order can be re-parsed
	// or audited without the screenshot.
	OCRText string `gorm:"type:text" json:"ocr_text,omitempty"`
}

// BeforeCreate assigns a UUID primary key.
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
