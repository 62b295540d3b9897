package model

import "time"

// Transaction is the immutable record of one completed purchase. PaymentID is
// unique; an insert that hits the constraint means the purchase was already
// settled. BuyerClerkID is a non-owning reference, deleting the user keeps
// their transactions.
type Transaction struct {
	ID           int64     `db:"id" json:"id"`
	PaymentID    string    `db:"payment_id" json:"payment_id"`
	Amount       int64     `db:"amount" json:"amount"`
	Credits      int       `db:"credits" json:"credits"`
	Plan         string    `db:"plan" json:"plan"`
	BuyerClerkID string    `db:"buyer_clerk_id" json:"buyer_clerk_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
