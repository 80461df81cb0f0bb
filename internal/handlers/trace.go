package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckscan/internal/scan"
	"github.com/xelth-com/eckscan/internal/services/printer"
)

func (r *Router) getTrace(w http.ResponseWriter, req *http.Request) {
	tr, err := scan.NewTrace(r.gw).Lookup(req.Context(), mux.Vars(req)["code"])
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tr)
}

// printLabel renders a replacement label for a damaged packet sticker
func (r *Router) printLabel(w http.ResponseWriter, req *http.Request) {
	header, err := r.gw.TraceHeader(req.Context(), mux.Vars(req)["code"])
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	pdf, err := printer.GeneratePacketLabelsPDF([]printer.LabelData{printer.LabelFromTrace(header)}, r.labels)
	if err != nil {
		log.Printf("❌ Label: %s: %v", header.PacketCode, err)
		respondError(w, http.StatusInternalServerError, "Failed to generate label")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=label_%s.pdf", header.PacketCode))
	w.Write(pdf)
}
