package dto

import "time"

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ClerkID       string    `json:"clerk_id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhotoURL      string    `json:"photo_url"`
	PlanID        int       `json:"plan_id"`
	CreditBalance int       `json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransformationRequestDTO starts one transformation debit.
type TransformationRequestDTO struct {
	Kind string `json:"kind" validate:"required,oneof=restore upscale recolor deblur remove-background"`
}

// TransformationResponseDTO reports the post-debit balance.
type TransformationResponseDTO struct {
	Kind             string `json:"kind"`
	RemainingCredits int    `json:"remaining_credits"`
}

// PurchaseResponseDTO is one settled purchase in the history listing.
type PurchaseResponseDTO struct {
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Credits   int       `json:"credits"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}
