package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/eckscan/internal/models"
)

// Call is one recorded gateway invocation
type Call struct {
	Op   string
	Args []string
}

// Fake is an in-memory Gateway that mimics the backend procedures closely enough
// for tests and for the terminal demo mode. It records every call in order.
type Fake struct {
	mu          sync.Mutex
	packets     map[string]*models.Packet
	orders      map[string]*models.SalesOrder
	bins        map[string]models.Bin
	allocations map[string][]string // order id -> packet codes in allocation order
	events      map[string][]models.TraceEvent
	failures    map[string]error
	calls       []Call
	nextID      int64

	// Hook runs before every call, outside the lock. Tests use it to hold a call in flight.
	Hook func(op string)
}

// NewFake creates an empty fake backend
func NewFake() *Fake {
	return &Fake{
		packets:     make(map[string]*models.Packet),
		orders:      make(map[string]*models.SalesOrder),
		bins:        make(map[string]models.Bin),
		allocations: make(map[string][]string),
		events:      make(map[string][]models.TraceEvent),
		failures:    make(map[string]error),
	}
}

// AddPacket seeds an existing packet
func (f *Fake) AddPacket(code, finishedGood string, status models.PacketStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := time.Now().UTC()
	f.packets[code] = &models.Packet{
		ID:           f.nextID,
		Code:         code,
		Status:       status,
		FinishedGood: finishedGood,
		ProducedAt:   &now,
	}
	f.event(code, "produced", "", "")
}

// AddOrder seeds an order; lines maps finished good -> ordered quantity
func (f *Fake) AddOrder(orderID, customer string, lines map[string]int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := &models.SalesOrder{
		ID:           orderID,
		OrderNumber:  orderID,
		CustomerName: customer,
		Status:       models.SalesOrderOpen,
		CreatedAt:    time.Now().UTC(),
	}
	for fg, qty := range lines {
		order.Lines = append(order.Lines, models.OrderLine{
			OrderID:      orderID,
			FinishedGood: fg,
			OrderedQty:   decimal.NewFromInt(qty),
			ShippedQty:   decimal.Zero,
		})
	}
	sort.Slice(order.Lines, func(i, j int) bool { return order.Lines[i].FinishedGood < order.Lines[j].FinishedGood })
	f.orders[orderID] = order
}

// AddBin seeds a bin
func (f *Fake) AddBin(code, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bins[code] = models.Bin{Code: code, Name: name, Active: true}
}

// FailOn makes the next call to op fail with err
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Calls returns a copy of the call log
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how often op was invoked
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Packet returns a copy of a seeded packet
func (f *Fake) Packet(code string) (models.Packet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.packets[code]
	if !ok {
		return models.Packet{}, false
	}
	return *p, true
}

// begin records the call, runs the hook and returns a pending injected failure
func (f *Fake) begin(op string, args ...string) error {
	if f.Hook != nil {
		f.Hook(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Args: args})
	if err, ok := f.failures[op]; ok {
		delete(f.failures, op)
		return Classify(op, err)
	}
	return nil
}

func (f *Fake) event(code, kind, ref, note string) {
	f.events[code] = append(f.events[code], models.TraceEvent{
		At:   time.Now().UTC(),
		Kind: kind,
		Ref:  ref,
		Note: note,
	})
}

func (f *Fake) allocatedTo(code string) (string, bool) {
	for orderID, codes := range f.allocations {
		for _, c := range codes {
			if c == code {
				return orderID, true
			}
		}
	}
	return "", false
}

func (f *Fake) dropAllocation(orderID, code string) bool {
	codes := f.allocations[orderID]
	for i, c := range codes {
		if c == code {
			f.allocations[orderID] = append(codes[:i:i], codes[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Fake) shift(order *models.SalesOrder, fg string, delta int64) {
	if line := order.Line(fg); line != nil {
		line.ShippedQty = line.ShippedQty.Add(decimal.NewFromInt(delta))
	}
}

// AllocatePacket links a packet to an order, enforcing one allocation per packet
func (f *Fake) AllocatePacket(ctx context.Context, orderID, packetCode string) error {
	if err := f.begin(OpAllocatePacket, orderID, packetCode); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return NewError(OpAllocatePacket, KindNotFound, fmt.Sprintf("Order %s not found", orderID))
	}
	p, ok := f.packets[packetCode]
	if !ok {
		return NewError(OpAllocatePacket, KindNotFound, fmt.Sprintf("Packet %s not found", packetCode))
	}
	if _, taken := f.allocatedTo(packetCode); taken || p.Status == models.PacketOutwarded {
		return &Error{
			Op:         OpAllocatePacket,
			Kind:       KindConflict,
			Code:       sqlStateUniqueViolation,
			Constraint: OutwardAllocationConstraint,
			Message:    fmt.Sprintf("duplicate key value violates unique constraint %q", OutwardAllocationConstraint),
		}
	}
	if p.Status != models.PacketAvailable {
		return NewError(OpAllocatePacket, KindInvalidState, fmt.Sprintf("Packet %s is %s", packetCode, p.Status))
	}
	if order.Line(p.FinishedGood) == nil {
		return NewError(OpAllocatePacket, KindInvalidState, fmt.Sprintf("Order %s has no line for %s", orderID, p.FinishedGood))
	}
	f.allocations[orderID] = append(f.allocations[orderID], packetCode)
	f.event(packetCode, "allocated", orderID, "")
	return nil
}

// OutwardScan marks an allocated packet outwarded and counts it as shipped
func (f *Fake) OutwardScan(ctx context.Context, packetCode, note string) (string, error) {
	if err := f.begin(OpOutwardScan, packetCode, note); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.packets[packetCode]
	if !ok {
		return "", NewError(OpOutwardScan, KindNotFound, fmt.Sprintf("Packet %s not found", packetCode))
	}
	if p.Status == models.PacketOutwarded {
		return "", NewError(OpOutwardScan, KindConflict, fmt.Sprintf("duplicate key value: packet %s already outwarded", packetCode))
	}
	orderID, ok := f.allocatedTo(packetCode)
	if !ok {
		return "", NewError(OpOutwardScan, KindInvalidState, fmt.Sprintf("Packet %s is not allocated", packetCode))
	}
	p.Status = models.PacketOutwarded
	p.BinCode = nil
	f.shift(f.orders[orderID], p.FinishedGood, 1)
	f.event(packetCode, "outwarded", orderID, note)
	return fmt.Sprintf("Packet %s outwarded", packetCode), nil
}

// UndoLastAllocation reverts the newest allocation on the order
func (f *Fake) UndoLastAllocation(ctx context.Context, orderID string) error {
	if err := f.begin(OpUndoLastAllocation, orderID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	codes := f.allocations[orderID]
	if len(codes) == 0 {
		return NewError(OpUndoLastAllocation, KindInvalidState, fmt.Sprintf("Order %s has nothing to undo", orderID))
	}
	last := codes[len(codes)-1]
	f.allocations[orderID] = codes[:len(codes)-1]
	if p, ok := f.packets[last]; ok && p.Status == models.PacketOutwarded {
		p.Status = models.PacketAvailable
		f.shift(f.orders[orderID], p.FinishedGood, -1)
	}
	f.event(last, "undone", orderID, "")
	return nil
}

// DeallocatePacket removes one allocation without touching shipped counts
func (f *Fake) DeallocatePacket(ctx context.Context, orderID, packetCode string) error {
	if err := f.begin(OpDeallocatePacket, orderID, packetCode); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dropAllocation(orderID, packetCode) {
		f.event(packetCode, "deallocated", orderID, "")
		return nil
	}
	return NewError(OpDeallocatePacket, KindNotFound, fmt.Sprintf("Packet %s is not allocated to %s", packetCode, orderID))
}

// AssignPacketToBin moves an available packet into a bin
func (f *Fake) AssignPacketToBin(ctx context.Context, packetCode, binCode string) error {
	if err := f.begin(OpAssignPacketToBin, packetCode, binCode); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bins[binCode]; !ok {
		return NewError(OpAssignPacketToBin, KindNotFound, fmt.Sprintf("Bin %s not found", binCode))
	}
	p, ok := f.packets[packetCode]
	if !ok {
		return NewError(OpAssignPacketToBin, KindNotFound, fmt.Sprintf("Packet %s not found", packetCode))
	}
	if p.Status != models.PacketAvailable && p.Status != models.PacketReturned {
		return NewError(OpAssignPacketToBin, KindInvalidState, fmt.Sprintf("Packet %s is %s", packetCode, p.Status))
	}
	bin := binCode
	p.BinCode = &bin
	if p.Status == models.PacketReturned {
		p.Status = models.PacketAvailable
	}
	f.event(packetCode, "binned", binCode, "")
	return nil
}

// ReturnPacket books an outwarded packet back in
func (f *Fake) ReturnPacket(ctx context.Context, packetCode string) error {
	if err := f.begin(OpReturnPacket, packetCode); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.packets[packetCode]
	if !ok {
		return NewError(OpReturnPacket, KindNotFound, fmt.Sprintf("Packet %s not found", packetCode))
	}
	switch p.Status {
	case models.PacketReturned:
		return NewError(OpReturnPacket, KindConflict, fmt.Sprintf("duplicate key value: packet %s already returned", packetCode))
	case models.PacketOutwarded:
	default:
		return NewError(OpReturnPacket, KindInvalidState, fmt.Sprintf("Packet %s is %s, only outwarded packets can be returned", packetCode, p.Status))
	}
	p.Status = models.PacketReturned
	if orderID, ok := f.allocatedTo(packetCode); ok {
		f.dropAllocation(orderID, packetCode)
	}
	f.event(packetCode, "returned", "", "")
	return nil
}

// ScrapPacket writes off any packet that is not already scrapped
func (f *Fake) ScrapPacket(ctx context.Context, packetCode, note string) error {
	if err := f.begin(OpScrapPacket, packetCode, note); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.packets[packetCode]
	if !ok {
		return NewError(OpScrapPacket, KindNotFound, fmt.Sprintf("Packet %s not found", packetCode))
	}
	if p.Status == models.PacketScrapped {
		return NewError(OpScrapPacket, KindConflict, fmt.Sprintf("duplicate key value: packet %s already scrapped", packetCode))
	}
	p.Status = models.PacketScrapped
	p.BinCode = nil
	f.event(packetCode, "scrapped", "", note)
	return nil
}

// LookupPacket returns the packet's current status
func (f *Fake) LookupPacket(ctx context.Context, code string) (*models.Packet, error) {
	if err := f.begin(OpLookupPacket, code); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.packets[code]
	if !ok {
		return nil, NewError(OpLookupPacket, KindNotFound, fmt.Sprintf("Packet %s not found", code))
	}
	cp := *p
	return &cp, nil
}

// GetOrder returns a deep copy of the order
func (f *Fake) GetOrder(ctx context.Context, orderID string) (*models.SalesOrder, error) {
	if err := f.begin(OpGetOrder, orderID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, NewError(OpGetOrder, KindNotFound, fmt.Sprintf("Order %s not found", orderID))
	}
	cp := *order
	cp.Lines = append([]models.OrderLine(nil), order.Lines...)
	return &cp, nil
}

// ListBins returns seeded bins sorted by code
func (f *Fake) ListBins(ctx context.Context) ([]models.Bin, error) {
	if err := f.begin(OpListBins); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	bins := make([]models.Bin, 0, len(f.bins))
	for _, b := range f.bins {
		bins = append(bins, b)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Code < bins[j].Code })
	return bins, nil
}

// BinContents lists available packets in a bin
func (f *Fake) BinContents(ctx context.Context, binCode string) ([]models.BinItem, error) {
	if err := f.begin(OpBinContents, binCode); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []models.BinItem
	for _, p := range f.packets {
		if p.BinCode != nil && *p.BinCode == binCode && p.Status == models.PacketAvailable {
			items = append(items, models.BinItem{BinCode: binCode, PacketCode: p.Code, FinishedGood: p.FinishedGood})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PacketCode < items[j].PacketCode })
	return items, nil
}

// UnbinnedPackets lists available packets without a bin
func (f *Fake) UnbinnedPackets(ctx context.Context, limit int) ([]models.UnbinnedPacket, error) {
	if err := f.begin(OpUnbinnedPackets); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.UnbinnedPacket
	for _, p := range f.packets {
		if p.BinCode == nil && p.Status == models.PacketAvailable {
			u := models.UnbinnedPacket{PacketCode: p.Code, FinishedGood: p.FinishedGood}
			if p.ProducedAt != nil {
				u.ProducedAt = *p.ProducedAt
			}
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PacketCode < out[j].PacketCode })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BinSummary counts available packets per bin and finished good
func (f *Fake) BinSummary(ctx context.Context, finishedGood string) ([]models.BinAvailability, error) {
	if err := f.begin(OpBinSummary, finishedGood); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[[2]string]int64)
	for _, p := range f.packets {
		if p.BinCode == nil || p.Status != models.PacketAvailable {
			continue
		}
		if finishedGood != "" && p.FinishedGood != finishedGood {
			continue
		}
		counts[[2]string{*p.BinCode, p.FinishedGood}]++
	}
	var rows []models.BinAvailability
	for k, n := range counts {
		rows = append(rows, models.BinAvailability{BinCode: k[0], FinishedGood: k[1], Available: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BinCode != rows[j].BinCode {
			return rows[i].BinCode < rows[j].BinCode
		}
		return rows[i].FinishedGood < rows[j].FinishedGood
	})
	return rows, nil
}

// TraceHeader summarises a packet
func (f *Fake) TraceHeader(ctx context.Context, code string) (*models.TraceHeader, error) {
	if err := f.begin(OpTraceHeader, code); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.packets[code]
	if !ok {
		return nil, NewError(OpTraceHeader, KindNotFound, fmt.Sprintf("Packet %s not found", code))
	}
	h := &models.TraceHeader{
		PacketCode:   p.Code,
		Status:       p.Status,
		FinishedGood: p.FinishedGood,
		BatchNo:      p.BatchNo,
		ProducedAt:   p.ProducedAt,
		BinCode:      p.BinCode,
	}
	if orderID, ok := f.allocatedTo(code); ok {
		h.OrderID = &orderID
	}
	return h, nil
}

// TraceEvents returns the recorded history of a packet
func (f *Fake) TraceEvents(ctx context.Context, code string) ([]models.TraceEvent, error) {
	if err := f.begin(OpTraceEvents, code); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.packets[code]; !ok {
		return nil, NewError(OpTraceEvents, KindNotFound, fmt.Sprintf("Packet %s not found", code))
	}
	return append([]models.TraceEvent(nil), f.events[code]...), nil
}
