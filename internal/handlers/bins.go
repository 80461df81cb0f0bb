package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (r *Router) listBins(w http.ResponseWriter, req *http.Request) {
	bins, err := r.gw.ListBins(req.Context())
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bins)
}

func (r *Router) binContents(w http.ResponseWriter, req *http.Request) {
	items, err := r.gw.BinContents(req.Context(), mux.Vars(req)["binCode"])
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (r *Router) listUnbinned(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	rows, err := r.gw.UnbinnedPackets(req.Context(), limit)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (r *Router) binSummary(w http.ResponseWriter, req *http.Request) {
	rows, err := r.gw.BinSummary(req.Context(), req.URL.Query().Get("fg"))
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
