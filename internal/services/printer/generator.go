package printer

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckscan/internal/models"
)

// LabelConfig holds the sheet layout for packet labels
type LabelConfig struct {
	Cols           int     `json:"cols"`
	Rows           int     `json:"rows"`
	MarginTop      float64 `json:"marginTop"`
	MarginLeft     float64 `json:"marginLeft"`
	GapX           float64 `json:"gapX"`
	GapY           float64 `json:"gapY"`
	InstanceSuffix string  `json:"instanceSuffix"` // printed in the corner to tell sites apart
}

// DefaultLabelConfig is a 3x8 sheet
func DefaultLabelConfig(suffix string) LabelConfig {
	return LabelConfig{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 8, GapX: 2, GapY: 2, InstanceSuffix: suffix}
}

// LabelData is what goes on one packet label
type LabelData struct {
	PacketCode   string
	FinishedGood string
	BatchNo      string
	ProducedAt   *time.Time
}

// LabelFromTrace builds a label from a packet trace header
func LabelFromTrace(h *models.TraceHeader) LabelData {
	return LabelData{
		PacketCode:   h.PacketCode,
		FinishedGood: h.FinishedGood,
		BatchNo:      h.BatchNo,
		ProducedAt:   h.ProducedAt,
	}
}

// GeneratePacketLabelsPDF creates a PDF with one QR label per packet. The QR encodes the packet code only,
// so a reprinted label scans exactly like the original.
func GeneratePacketLabelsPDF(labels []LabelData, cfg LabelConfig) ([]byte, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labels to print")
	}
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		return nil, fmt.Errorf("invalid label grid %dx%d", cfg.Cols, cfg.Rows)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		// Top-left of label
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(label.PacketCode, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("qr for %s: %w", label.PacketCode, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR on the left, text on the right
		qrSize := labelH * 0.85
		if qrSize > labelW/2 {
			qrSize = labelW / 2
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3

		pdf.SetXY(textX, y+3)
		pdf.SetFontSize(8)
		pdf.CellFormat(textW, 4, label.PacketCode, "", 2, "L", false, 0, "")

		pdf.SetX(textX)
		pdf.SetFontSize(6)
		pdf.CellFormat(textW, 3, label.FinishedGood, "", 2, "L", false, 0, "")
		if label.BatchNo != "" {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 3, "Batch "+label.BatchNo, "", 2, "L", false, 0, "")
		}
		if label.ProducedAt != nil {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 3, label.ProducedAt.Format("2006-01-02"), "", 2, "L", false, 0, "")
		}

		if cfg.InstanceSuffix != "" {
			pdf.SetXY(x, y+1)
			pdf.SetFontSize(5)
			pdf.CellFormat(labelW-1, 2, cfg.InstanceSuffix, "", 0, "R", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
