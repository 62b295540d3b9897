package model

import "time"

// User mirrors the identity provider's view of an account. ClerkID is the
// foreign key into the provider and never changes; email and username are
// unique at the store level because sync handlers run concurrently.
type User struct {
	ID            int64     `db:"id" json:"id"`
	ClerkID       string    `db:"clerk_id" json:"clerk_id"`
	Email         string    `db:"email" json:"email"`
	Username      string    `db:"username" json:"username"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	PhotoURL      string    `db:"photo_url" json:"photo_url"`
	PlanID        int       `db:"plan_id" json:"plan_id"`
	CreditBalance int       `db:"credit_balance" json:"credit_balance"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
