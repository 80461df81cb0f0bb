package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xelth-com/eckscan/internal/models"
	"gorm.io/gorm"
)

// DefaultUnbinnedLimit caps the unbinned listing when callers pass 0
const DefaultUnbinnedLimit = 200

// Postgres calls the backend procedures and views through gorm
type Postgres struct {
	db *gorm.DB
}

// NewPostgres creates a gateway over an open gorm connection
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (g *Postgres) call(ctx context.Context, op, query string, args ...interface{}) error {
	if err := g.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return Classify(op, err)
	}
	return nil
}

// AllocatePacket links a packet to an order line
func (g *Postgres) AllocatePacket(ctx context.Context, orderID, packetCode string) error {
	return g.call(ctx, OpAllocatePacket, "SELECT allocate_packet_to_order(?, ?)", orderID, packetCode)
}

// outwardResult is the JSON returned by packet_outward_scan
type outwardResult struct {
	Message string `json:"message"`
}

// OutwardScan debits stock and marks the packet outwarded; returns the server message
func (g *Postgres) OutwardScan(ctx context.Context, packetCode, note string) (string, error) {
	var raw sql.NullString
	err := g.db.WithContext(ctx).
		Raw("SELECT packet_outward_scan(?, ?)::text", packetCode, note).
		Scan(&raw).Error
	if err != nil {
		return "", Classify(OpOutwardScan, err)
	}
	if !raw.Valid {
		return "", nil
	}
	return parseOutwardMessage(raw.String), nil
}

// parseOutwardMessage accepts the JSON object form and falls back to plain text
func parseOutwardMessage(raw string) string {
	raw = strings.TrimSpace(raw)
	var res outwardResult
	if err := json.Unmarshal([]byte(raw), &res); err == nil {
		return res.Message
	}
	var plain string
	if err := json.Unmarshal([]byte(raw), &plain); err == nil {
		return plain
	}
	return raw
}

// UndoLastAllocation reverts the most recent allocation on the order, as the server defines it
func (g *Postgres) UndoLastAllocation(ctx context.Context, orderID string) error {
	return g.call(ctx, OpUndoLastAllocation, "SELECT undo_last_allocation(?)", orderID)
}

// DeallocatePacket removes one packet's allocation from an order
func (g *Postgres) DeallocatePacket(ctx context.Context, orderID, packetCode string) error {
	return g.call(ctx, OpDeallocatePacket, "SELECT deallocate_packet_from_order(?, ?)", orderID, packetCode)
}

// AssignPacketToBin records a putaway
func (g *Postgres) AssignPacketToBin(ctx context.Context, packetCode, binCode string) error {
	return g.call(ctx, OpAssignPacketToBin, "SELECT assign_packet_to_bin(?, ?)", packetCode, binCode)
}

// ReturnPacket books a customer return
func (g *Postgres) ReturnPacket(ctx context.Context, packetCode string) error {
	return g.call(ctx, OpReturnPacket, "SELECT return_packet_scan(?)", packetCode)
}

// ScrapPacket writes a packet off
func (g *Postgres) ScrapPacket(ctx context.Context, packetCode, note string) error {
	return g.call(ctx, OpScrapPacket, "SELECT scrap_packet_by_barcode(?, ?)", packetCode, note)
}

// LookupPacket reads id, code and status for the pre-check
func (g *Postgres) LookupPacket(ctx context.Context, code string) (*models.Packet, error) {
	var packet models.Packet
	err := g.db.WithContext(ctx).Where("packet_code = ?", code).Take(&packet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(OpLookupPacket, KindNotFound, fmt.Sprintf("Packet %s not found", code))
	}
	if err != nil {
		return nil, Classify(OpLookupPacket, err)
	}
	return &packet, nil
}

// GetOrder loads the header and its lines
func (g *Postgres) GetOrder(ctx context.Context, orderID string) (*models.SalesOrder, error) {
	var order models.SalesOrder
	err := g.db.WithContext(ctx).Where("id = ?", orderID).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(OpGetOrder, KindNotFound, fmt.Sprintf("Order %s not found", orderID))
	}
	if err != nil {
		return nil, Classify(OpGetOrder, err)
	}

	if err := g.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("fg_name").
		Find(&order.Lines).Error; err != nil {
		return nil, Classify(OpGetOrder, err)
	}
	return &order, nil
}

// ListBins returns active bins for the putaway selector
func (g *Postgres) ListBins(ctx context.Context) ([]models.Bin, error) {
	var bins []models.Bin
	if err := g.db.WithContext(ctx).Where("active = ?", true).Order("bin_code").Find(&bins).Error; err != nil {
		return nil, Classify(OpListBins, err)
	}
	return bins, nil
}

// BinContents lists packets in one bin, newest putaway first
func (g *Postgres) BinContents(ctx context.Context, binCode string) ([]models.BinItem, error) {
	var items []models.BinItem
	if err := g.db.WithContext(ctx).
		Where("bin_code = ?", binCode).
		Order("assigned_at DESC").
		Find(&items).Error; err != nil {
		return nil, Classify(OpBinContents, err)
	}
	return items, nil
}

// UnbinnedPackets lists available packets without a bin, oldest first
func (g *Postgres) UnbinnedPackets(ctx context.Context, limit int) ([]models.UnbinnedPacket, error) {
	if limit <= 0 {
		limit = DefaultUnbinnedLimit
	}
	var packets []models.UnbinnedPacket
	if err := g.db.WithContext(ctx).
		Order("produced_at").
		Limit(limit).
		Find(&packets).Error; err != nil {
		return nil, Classify(OpUnbinnedPackets, err)
	}
	return packets, nil
}

// BinSummary returns availability per bin; empty finishedGood means all goods
func (g *Postgres) BinSummary(ctx context.Context, finishedGood string) ([]models.BinAvailability, error) {
	var rows []models.BinAvailability
	q := g.db.WithContext(ctx).Where("available > 0")
	if finishedGood != "" {
		q = q.Where("fg_name = ?", finishedGood)
	}
	if err := q.Order("bin_code").Find(&rows).Error; err != nil {
		return nil, Classify(OpBinSummary, err)
	}
	return rows, nil
}

// TraceHeader reads the packet summary
func (g *Postgres) TraceHeader(ctx context.Context, code string) (*models.TraceHeader, error) {
	var rows []models.TraceHeader
	if err := g.db.WithContext(ctx).
		Raw("SELECT * FROM packet_trace_header(?)", code).
		Scan(&rows).Error; err != nil {
		return nil, Classify(OpTraceHeader, err)
	}
	if len(rows) == 0 {
		return nil, NewError(OpTraceHeader, KindNotFound, fmt.Sprintf("Packet %s not found", code))
	}
	return &rows[0], nil
}

// TraceEvents reads ledger and allocation events in chronological order
func (g *Postgres) TraceEvents(ctx context.Context, code string) ([]models.TraceEvent, error) {
	var events []models.TraceEvent
	if err := g.db.WithContext(ctx).
		Raw("SELECT * FROM packet_trace_events(?)", code).
		Scan(&events).Error; err != nil {
		return nil, Classify(OpTraceEvents, err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return events, nil
}
