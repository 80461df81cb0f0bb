package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/xelth-com/eckscan/internal/models"
)

func TestGeneratePacketLabelsPDF(t *testing.T) {
	produced := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	labels := []LabelData{
		{PacketCode: "PKT-00000001", FinishedGood: "Ragi Atta 1kg", BatchNo: "B7", ProducedAt: &produced},
		LabelFromTrace(&models.TraceHeader{PacketCode: "PKT-00000002", FinishedGood: "Ragi Atta 1kg"}),
	}

	pdf, err := GeneratePacketLabelsPDF(labels, DefaultLabelConfig("IB"))
	if err != nil {
		t.Fatalf("GeneratePacketLabelsPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output is not a PDF: %q", pdf[:8])
	}
}

func TestGeneratePacketLabelsPDFRejectsBadInput(t *testing.T) {
	if _, err := GeneratePacketLabelsPDF(nil, DefaultLabelConfig("IB")); err == nil {
		t.Error("expected error for no labels")
	}
	if _, err := GeneratePacketLabelsPDF([]LabelData{{PacketCode: "X"}}, LabelConfig{}); err == nil {
		t.Error("expected error for empty grid")
	}
}
