package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/eckscan/internal/models"
)

func TestOrderLinesXLSX(t *testing.T) {
	order := &models.SalesOrder{
		ID:           "O",
		OrderNumber:  "SO-1001",
		CustomerName: "Acme Stores",
		Status:       models.SalesOrderOpen,
		Lines: []models.OrderLine{
			{FinishedGood: "Ragi Atta 1kg", OrderedQty: decimal.NewFromInt(10), ShippedQty: decimal.NewFromInt(3)},
			{FinishedGood: "Jowar Atta 1kg", OrderedQty: decimal.NewFromInt(5), ShippedQty: decimal.Zero},
		},
	}

	data, err := OrderLinesXLSX(order)
	if err != nil {
		t.Fatalf("OrderLinesXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"B1": "SO-1001",
		"A6": "Ragi Atta 1kg",
		"D6": "7",
		"A8": "Total",
		"C8": "3",
		"D8": "12",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(orderSheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestOrderLinesXLSXOverShippedTotal(t *testing.T) {
	order := &models.SalesOrder{
		ID:          "O",
		OrderNumber: "SO-1002",
		Lines: []models.OrderLine{
			{FinishedGood: "Ragi Atta 1kg", OrderedQty: decimal.NewFromInt(10), ShippedQty: decimal.NewFromInt(4)},
			{FinishedGood: "Jowar Atta 500g", OrderedQty: decimal.NewFromInt(4), ShippedQty: decimal.NewFromInt(9)},
		},
	}

	data, err := OrderLinesXLSX(order)
	if err != nil {
		t.Fatalf("OrderLinesXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	// the over-shipped line shows 0 and the total matches the column
	for cell, want := range map[string]string{"D7": "0", "A8": "Total", "D8": "6"} {
		got, err := f.GetCellValue(orderSheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestOrderLinesXLSXNilOrder(t *testing.T) {
	if _, err := OrderLinesXLSX(nil); err == nil {
		t.Error("expected error for nil order")
	}
}
