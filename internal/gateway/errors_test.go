package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "unique violation by SQLSTATE",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: OutwardAllocationConstraint},
			want: KindConflict,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", Message: "dup"}),
			want: KindConflict,
		},
		{
			name: "no data found",
			err:  &pgconn.PgError{Code: "P0002", Message: "packet not found"},
			want: KindNotFound,
		},
		{
			name: "prerequisite state",
			err:  &pgconn.PgError{Code: "55000", Message: "packet is scrapped"},
			want: KindInvalidState,
		},
		{
			name: "raised exception naming a state",
			err:  &pgconn.PgError{Code: "P0001", Message: "Packet PKT-1 is Scrapped"},
			want: KindInvalidState,
		},
		{
			name: "raised exception stays remote",
			err:  &pgconn.PgError{Code: "P0001", Message: "insufficient stock"},
			want: KindRemote,
		},
		{
			name: "legacy duplicate text",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "x"`),
			want: KindConflict,
		},
		{
			name: "legacy constraint name",
			err:  errors.New("violates outward_allocations_packet_id_key"),
			want: KindConflict,
		},
		{
			name: "gorm not found",
			err:  gorm.ErrRecordNotFound,
			want: KindNotFound,
		},
		{
			name: "generic",
			err:  errors.New("connection reset by peer"),
			want: KindRemote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("op", tt.err)
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("Classify should return *Error, got %T", err)
			}
			if ge.Op != "op" {
				t.Errorf("Op = %q, want op", ge.Op)
			}
			if !errors.Is(err, tt.err) && ge.Err != nil {
				t.Errorf("classified error should unwrap to the original")
			}
		})
	}
}

func TestClassifyKeepsServerMessage(t *testing.T) {
	err := Classify(OpAllocatePacket, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"outward_allocations_packet_id_key\"", ConstraintName: OutwardAllocationConstraint})
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ge.Code != "23505" || ge.Constraint != OutwardAllocationConstraint {
		t.Errorf("code/constraint not carried: %+v", ge)
	}
	if ge.Error() != ge.Message {
		t.Errorf("Error() should be the server message, got %q", ge.Error())
	}
}

func TestClassifyIdempotent(t *testing.T) {
	orig := NewError(OpLookupPacket, KindNotFound, "Packet X not found")
	if got := Classify("other", orig); got != error(orig) {
		t.Errorf("already classified errors must pass through unchanged")
	}
	if Classify("op", nil) != nil {
		t.Error("nil should stay nil")
	}
	if IsKind(nil, KindRemote) {
		t.Error("nil error has no kind")
	}
}
