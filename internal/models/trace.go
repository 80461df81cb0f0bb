package models

import (
	"time"

	"gorm.io/datatypes"
)

// TraceHeader is the summary row returned by packet_trace_header(code)
type TraceHeader struct {
	PacketCode   string       `gorm:"column:packet_code" json:"packet_code"`
	Status       PacketStatus `gorm:"column:status" json:"status"`
	FinishedGood string       `gorm:"column:fg_name" json:"fg_name"`
	BatchNo      string       `gorm:"column:batch_no" json:"batch_no,omitempty"`
	ProducedAt   *time.Time   `gorm:"column:produced_at" json:"produced_at,omitempty"`
	BinCode      *string      `gorm:"column:bin_code" json:"bin_code,omitempty"`
	OrderID      *string      `gorm:"column:order_id" json:"order_id,omitempty"`
	OutwardedAt  *time.Time   `gorm:"column:outwarded_at" json:"outwarded_at,omitempty"`
}

// TraceEvent is one ledger or allocation event from packet_trace_events(code)
type TraceEvent struct {
	At      time.Time      `gorm:"column:at" json:"at"`
	Kind    string         `gorm:"column:kind" json:"kind"` // produced, binned, allocated, outwarded, returned, scrapped...
	Ref     string         `gorm:"column:ref" json:"ref,omitempty"`
	Note    string         `gorm:"column:note" json:"note,omitempty"`
	Actor   string         `gorm:"column:actor" json:"actor,omitempty"`
	Payload datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
}

// PacketTrace bundles both trace reads for rendering
type PacketTrace struct {
	Header *TraceHeader `json:"header"`
	Events []TraceEvent `json:"events"`
}
