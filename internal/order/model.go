package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/kikite/backend-order/internal/calc"
)

// Order is a confirmed phone order with its persisted totals breakdown.
type Order struct {
	ID                uuid.UUID          `json:"id"`
	OrderNumber       string             `json:"orderNumber"`
	CustomerID        *uuid.UUID         `json:"customerId,omitempty"`
	OrdererName       string             `json:"ordererName"`
	OrdererKana       string             `json:"ordererKana"`
	OrdererPhone      string             `json:"ordererPhone"`
	OrdererPostal     string             `json:"ordererPostal"`
	OrdererPrefecture string             `json:"ordererPrefecture"`
	OrdererCity       string             `json:"ordererCity"`
	OrdererAddress1   string             `json:"ordererAddress1"`
	OrdererAddress2   string             `json:"ordererAddress2"`
	PaymentMethod     calc.PaymentMethod `json:"paymentMethod"`
	Discount          calc.Money         `json:"discount"`
	Subtotal          calc.Money         `json:"subtotal"`
	ShippingFee       calc.Money         `json:"shippingFee"`
	WrappingFee       calc.Money         `json:"wrappingFee"`
	PaymentFee        calc.Money         `json:"paymentFee"`
	TotalAmount       calc.Money         `json:"totalAmount"`
	Notes             string             `json:"notes"`
	Status            string             `json:"status"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Details           []Detail           `json:"details,omitempty"`
}

// Detail is one order line bound for one recipient.
type Detail struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"orderId"`
	LineIndex       int        `json:"lineIndex"`
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	ProductCode     string     `json:"productCode"`
	ProductName     string     `json:"productName"`
	UnitPrice       calc.Money `json:"unitPrice"`
	Quantity        int        `json:"quantity"`
	LineTotal       calc.Money `json:"lineTotal"`
	RecipientName   string     `json:"recipientName"`
	RecipientPostal string     `json:"recipientPostal"`
	RecipientPref   string     `json:"recipientPref"`
	RecipientCity   string     `json:"recipientCity"`
	RecipientAddr1  string     `json:"recipientAddr1"`
	RecipientAddr2  string     `json:"recipientAddr2"`
	RecipientPhone  string     `json:"recipientPhone"`
	NoshiType       string     `json:"noshiType"`
	WrappingType    string     `json:"wrappingType"`
	ShippingFee     calc.Money `json:"shippingFee"`
	WrappingFee     calc.Money `json:"wrappingFee"`
	IsFreeShipping  bool       `json:"isFreeShipping"`
	DeliveryDate    *time.Time `json:"deliveryDate,omitempty"`
	Message         string     `json:"message"`
}

// LineInput is one requested order line. Unit prices are never accepted from
// the client; they are resolved from the catalog on the server.
type LineInput struct {
	ProductID       uuid.UUID `json:"productId" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,min=1"`
	RecipientName   string    `json:"recipientName" validate:"required"`
	RecipientPostal string    `json:"recipientPostal" validate:"required,len=7,numeric"`
	RecipientPref   string    `json:"recipientPref" validate:"required"`
	RecipientCity   string    `json:"recipientCity" validate:"required"`
	RecipientAddr1  string    `json:"recipientAddr1" validate:"required"`
	RecipientAddr2  string    `json:"recipientAddr2"`
	RecipientPhone  string    `json:"recipientPhone"`
	NoshiType       string    `json:"noshiType" validate:"omitempty,oneof=なし シールのし 通常のし"`
	WrappingType    string    `json:"wrappingType" validate:"omitempty,oneof=なし 簡易包装 フル包装"`
	DeliveryDate    string    `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
	Message         string    `json:"message"`
}

// UpsertRequest is the payload for creating or replacing an order.
type UpsertRequest struct {
	OrdererName       string      `json:"ordererName" validate:"required"`
	OrdererKana       string      `json:"ordererKana"`
	OrdererPhone      string      `json:"ordererPhone" validate:"required"`
	OrdererPostal     string      `json:"ordererPostal" validate:"required,len=7,numeric"`
	OrdererPrefecture string      `json:"ordererPrefecture" validate:"required"`
	OrdererCity       string      `json:"ordererCity" validate:"required"`
	OrdererAddress1   string      `json:"ordererAddress1" validate:"required"`
	OrdererAddress2   string      `json:"ordererAddress2"`
	PaymentMethod     string      `json:"paymentMethod" validate:"required"`
	Discount          calc.Money  `json:"discount" validate:"min=0"`
	Notes             string      `json:"notes"`
	Lines             []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// PreviewRequest computes a totals breakdown without persisting anything.
type PreviewRequest struct {
	PaymentMethod string      `json:"paymentMethod" validate:"required"`
	Discount      calc.Money  `json:"discount" validate:"min=0"`
	Lines         []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Breakdown is the preview response mirroring the persisted totals.
type Breakdown struct {
	LineTotals       []calc.Money `json:"lineTotals"`
	ShippingFees     []calc.Money `json:"shippingFees"`
	WrappingFees     []calc.Money `json:"wrappingFees"`
	Subtotal         calc.Money   `json:"subtotal"`
	TotalShippingFee calc.Money   `json:"totalShippingFee"`
	TotalWrappingFee calc.Money   `json:"totalWrappingFee"`
	TotalFee         calc.Money   `json:"totalFee"`
	TotalAmount      calc.Money   `json:"totalAmount"`
	PaymentFeeError  string       `json:"paymentFeeError,omitempty"`
}
