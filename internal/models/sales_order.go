package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrderStatus mirrors the backend order states
type SalesOrderStatus string

const (
	SalesOrderOpen      SalesOrderStatus = "open"
	SalesOrderPartial   SalesOrderStatus = "partial"
	SalesOrderCompleted SalesOrderStatus = "completed"
	SalesOrderCancelled SalesOrderStatus = "cancelled"
)

// SalesOrder is the order header from 'sales_orders'.
// Totals always come from the server; Lines is filled from 'v_sales_order_lines'.
type SalesOrder struct {
	ID           string           `gorm:"primaryKey;column:id" json:"id"`
	OrderNumber  string           `gorm:"column:order_number" json:"order_number"`
	CustomerName string           `gorm:"column:customer_name" json:"customer_name"`
	Status       SalesOrderStatus `gorm:"column:status" json:"status"`
	CreatedAt    time.Time        `gorm:"column:created_at" json:"created_at"`

	Lines []OrderLine `gorm:"-" json:"lines"`
}

func (SalesOrder) TableName() string {
	return "sales_orders"
}

// OrderLine is one finished good on an order, with ordered vs shipped quantities
type OrderLine struct {
	OrderID      string          `gorm:"column:order_id" json:"order_id"`
	FinishedGood string          `gorm:"column:fg_name" json:"fg_name"`
	OrderedQty   decimal.Decimal `gorm:"column:ordered_qty;type:numeric" json:"ordered_qty"`
	ShippedQty   decimal.Decimal `gorm:"column:shipped_qty;type:numeric" json:"shipped_qty"`
}

func (OrderLine) TableName() string {
	return "v_sales_order_lines"
}

// Remaining returns what is still to ship on this line, never below zero
func (l OrderLine) Remaining() decimal.Decimal {
	rest := l.OrderedQty.Sub(l.ShippedQty)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// ShippedTotal sums the server-reported shipped quantities
func (o *SalesOrder) ShippedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.ShippedQty)
	}
	return total
}

// OrderedTotal sums the ordered quantities
func (o *SalesOrder) OrderedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.OrderedQty)
	}
	return total
}

// RemainingTotal sums per-line remaining, so an over-shipped line counts as zero
func (o *SalesOrder) RemainingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Remaining())
	}
	return total
}

// Line returns the line for a finished good, or nil
func (o *SalesOrder) Line(fg string) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].FinishedGood == fg {
			return &o.Lines[i]
		}
	}
	return nil
}
