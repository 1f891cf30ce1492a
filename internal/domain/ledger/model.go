// Package ledger owns product stock and the append-only inventory movement log.
package ledger

import (
	"time"

	"revengepos/internal/core/id"
)

// Kind classifies a movement.
type Kind string

const (
	KindEntrada Kind = "entrada" // incoming (purchase, manual receipt)
	KindSalida  Kind = "salida"  // outgoing (sale, manual issue)
	KindAjuste  Kind = "ajuste"  // correction, either sign
	KindInicial Kind = "inicial" // opening balance of a new product
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEntrada, KindSalida, KindAjuste, KindInicial:
		return true
	}
	return false
}

// acceptsDelta reports whether the sign of delta fits the kind.
func (k Kind) acceptsDelta(delta int64) bool {
	switch k {
	case KindEntrada, KindInicial:
		return delta > 0
	case KindSalida:
		return delta < 0
	default:
		return delta != 0
	}
}

// RefKind tags the document that caused a movement.
type RefKind string

const (
	RefVenta  RefKind = "venta"
	RefCompra RefKind = "compra"
	RefAjuste RefKind = "ajuste"
)

// Reference points at the originating document.
type Reference struct {
	ID   id.ID
	Kind RefKind
}

// Movement is one immutable stock change.
// StockAfter == StockBefore + Delta always holds.
type Movement struct {
	ID            id.ID     `db:"id" json:"id"`
	ProductID     id.ID     `db:"product_id" json:"productId"`
	Kind          Kind      `db:"kind" json:"kind"`
	Delta         int64     `db:"delta" json:"delta"`
	StockBefore   int64     `db:"stock_before" json:"stockBefore"`
	StockAfter    int64     `db:"stock_after" json:"stockAfter"`
	ReferenceID   *id.ID    `db:"reference_id" json:"referenceId,omitempty"`
	ReferenceKind *RefKind  `db:"reference_kind" json:"referenceKind,omitempty"`
	Reason        string    `db:"reason" json:"reason"`
	ActorID       *id.ID    `db:"actor_id" json:"actorId,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// MovementRequest describes a stock change to apply.
type MovementRequest struct {
	ProductID id.ID
	Kind      Kind
	Delta     int64
	Reference *Reference
	Reason    string
	ActorID   *id.ID
}

// StockRow is the slice of a product row the ledger works with.
type StockRow struct {
	ProductID id.ID  `db:"id"`
	Code      string `db:"code"`
	Stock     int64  `db:"stock"`
}
