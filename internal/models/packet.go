package models

import (
	"time"
)

// PacketStatus is the lifecycle state of a packet as reported by the backend
type PacketStatus string

const (
	PacketAvailable PacketStatus = "available" // In stock, may be allocated
	PacketOutwarded PacketStatus = "outwarded" // Shipped against an order
	PacketReturned  PacketStatus = "returned"  // Came back from a customer
	PacketScrapped  PacketStatus = "scrapped"  // Written off
)

// Packet mirrors a row of the 'v_live_barcodes_enriched' view.
// Packets are created by manufacturing on the server; this side only reads them by code.
type Packet struct {
	ID           int64        `gorm:"column:id" json:"id"`
	Code         string       `gorm:"column:packet_code" json:"packet_code"`
	Status       PacketStatus `gorm:"column:status" json:"status"`
	FinishedGood string       `gorm:"column:fg_name" json:"fg_name"`
	BatchNo      string       `gorm:"column:batch_no" json:"batch_no,omitempty"`
	ProducedAt   *time.Time   `gorm:"column:produced_at" json:"produced_at,omitempty"`
	BinCode      *string      `gorm:"column:bin_code" json:"bin_code,omitempty"`
}

func (Packet) TableName() string {
	return "v_live_barcodes_enriched"
}

// IsScrapped returns true if the packet has been written off
func (p *Packet) IsScrapped() bool {
	return p.Status == PacketScrapped
}

// IsOutwarded returns true if the packet has already shipped
func (p *Packet) IsOutwarded() bool {
	return p.Status == PacketOutwarded
}
