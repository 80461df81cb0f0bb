// Package gateway is the only path from the scan flows to the backend.
// Every stock mutation is a server-side procedure; every list is a server-side view.
package gateway

import (
	"context"

	"github.com/xelth-com/eckscan/internal/models"
)

// Procedure names as installed in the backend schema
const (
	OpAllocatePacket     = "allocate_packet_to_order"
	OpOutwardScan        = "packet_outward_scan"
	OpUndoLastAllocation = "undo_last_allocation"
	OpDeallocatePacket   = "deallocate_packet_from_order"
	OpAssignPacketToBin  = "assign_packet_to_bin"
	OpReturnPacket       = "return_packet_scan"
	OpScrapPacket        = "scrap_packet_by_barcode"
	OpLookupPacket       = "lookup_packet"
	OpGetOrder           = "get_order"
	OpListBins           = "list_bins"
	OpBinContents        = "bin_contents"
	OpUnbinnedPackets    = "unbinned_packets"
	OpBinSummary         = "bin_summary"
	OpTraceHeader        = "packet_trace_header"
	OpTraceEvents        = "packet_trace_events"
)

// Gateway exposes the backend procedures and views consumed by the scan flows.
// Implementations return *Error for every failure.
type Gateway interface {
	// Mutations
	AllocatePacket(ctx context.Context, orderID, packetCode string) error
	OutwardScan(ctx context.Context, packetCode, note string) (string, error)
	UndoLastAllocation(ctx context.Context, orderID string) error
	DeallocatePacket(ctx context.Context, orderID, packetCode string) error
	AssignPacketToBin(ctx context.Context, packetCode, binCode string) error
	ReturnPacket(ctx context.Context, packetCode string) error
	ScrapPacket(ctx context.Context, packetCode, note string) error

	// Reads
	LookupPacket(ctx context.Context, code string) (*models.Packet, error)
	GetOrder(ctx context.Context, orderID string) (*models.SalesOrder, error)
	ListBins(ctx context.Context) ([]models.Bin, error)
	BinContents(ctx context.Context, binCode string) ([]models.BinItem, error)
	UnbinnedPackets(ctx context.Context, limit int) ([]models.UnbinnedPacket, error)
	BinSummary(ctx context.Context, finishedGood string) ([]models.BinAvailability, error)
	TraceHeader(ctx context.Context, code string) (*models.TraceHeader, error)
	TraceEvents(ctx context.Context, code string) ([]models.TraceEvent, error)
}

var (
	_ Gateway = (*Postgres)(nil)
	_ Gateway = (*Fake)(nil)
)
