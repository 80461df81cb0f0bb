// Package export renders order views as spreadsheets for the dispatch office.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/eckscan/internal/models"
)

const orderSheet = "Order"

var orderHeaders = []string{"Finished Good", "Ordered", "Shipped", "Remaining"}

// OrderLinesXLSX writes an order's lines with a totals row
func OrderLinesXLSX(order *models.SalesOrder) ([]byte, error) {
	if order == nil {
		return nil, errors.New("no order")
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(orderSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	f.SetCellValue(orderSheet, "A1", "Order")
	f.SetCellValue(orderSheet, "B1", order.OrderNumber)
	f.SetCellValue(orderSheet, "A2", "Customer")
	f.SetCellValue(orderSheet, "B2", order.CustomerName)
	f.SetCellValue(orderSheet, "A3", "Status")
	f.SetCellValue(orderSheet, "B3", string(order.Status))

	const headerRow = 5
	for i, header := range orderHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(orderSheet, cell, header)
		f.SetCellStyle(orderSheet, cell, cell, headerStyle)
	}

	row := headerRow + 1
	for _, line := range order.Lines {
		values := []interface{}{
			line.FinishedGood,
			line.OrderedQty.InexactFloat64(),
			line.ShippedQty.InexactFloat64(),
			line.Remaining().InexactFloat64(),
		}
		if err := f.SetSheetRow(orderSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++
	}

	totals := []interface{}{
		"Total",
		order.OrderedTotal().InexactFloat64(),
		order.ShippedTotal().InexactFloat64(),
		order.RemainingTotal().InexactFloat64(),
	}
	if err := f.SetSheetRow(orderSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	f.SetCellStyle(orderSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), headerStyle)
	f.SetColWidth(orderSheet, "A", "A", 28)
	f.SetColWidth(orderSheet, "B", "D", 12)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
