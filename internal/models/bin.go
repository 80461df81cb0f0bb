package models

import "time"

// Bin is a named storage location.
// Capacity and conflicts are enforced by the backend, never here.
type Bin struct {
	Code   string `gorm:"primaryKey;column:bin_code" json:"bin_code"`
	Name   string `gorm:"column:name" json:"name"`
	Zone   string `gorm:"column:zone" json:"zone,omitempty"`
	Active bool   `gorm:"column:active;default:true" json:"active"`
}

func (Bin) TableName() string { return "bins" }

// BinItem is a row of 'v_bin_inventory': one packet sitting in one bin
type BinItem struct {
	BinCode      string    `gorm:"column:bin_code" json:"bin_code"`
	PacketCode   string    `gorm:"column:packet_code" json:"packet_code"`
	FinishedGood string    `gorm:"column:fg_name" json:"fg_name"`
	AssignedAt   time.Time `gorm:"column:assigned_at" json:"assigned_at"`
}

func (BinItem) TableName() string { return "v_bin_inventory" }

// UnbinnedPacket is a row of 'v_unbinned_packets': available stock waiting for putaway
type UnbinnedPacket struct {
	PacketCode   string    `gorm:"column:packet_code" json:"packet_code"`
	FinishedGood string    `gorm:"column:fg_name" json:"fg_name"`
	ProducedAt   time.Time `gorm:"column:produced_at" json:"produced_at"`
}

func (UnbinnedPacket) TableName() string { return "v_unbinned_packets" }

// BinAvailability is a row of 'v_bin_availability', shown beside the outward screen
type BinAvailability struct {
	BinCode      string `gorm:"column:bin_code" json:"bin_code"`
	FinishedGood string `gorm:"column:fg_name" json:"fg_name"`
	Available    int64  `gorm:"column:available" json:"available"`
}

func (BinAvailability) TableName() string { return "v_bin_availability" }
