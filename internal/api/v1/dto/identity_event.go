package dto

import "app/internal/service"

// ClerkEvent is the raw webhook envelope. Type selects which data fields are
// meaningful: deleted events carry only the id.
type ClerkEvent struct {
	Type string         `json:"type" validate:"required"`
	Data ClerkEventData `json:"data" validate:"required"`
}

type ClerkEventData struct {
	ID             string       `json:"id" validate:"required"`
	Username       *string      `json:"username"`
	FirstName      *string      `json:"first_name"`
	LastName       *string      `json:"last_name"`
	ImageURL       *string      `json:"image_url"`
	EmailAddresses []ClerkEmail `json:"email_addresses"`
}

type ClerkEmail struct {
	EmailAddress string `json:"email_address"`
}

// ToIdentityEvent maps the provider payload onto the tagged event the sync
// service consumes.
func (e *ClerkEvent) ToIdentityEvent() service.IdentityEvent {
	ev := service.IdentityEvent{
		Kind:      e.Type,
		ClerkID:   e.Data.ID,
		FirstName: e.Data.FirstName,
		LastName:  e.Data.LastName,
		PhotoURL:  e.Data.ImageURL,
	}
	if e.Data.Username != nil {
		ev.Username = *e.Data.Username
	}
	if len(e.Data.EmailAddresses) > 0 {
		ev.Email = e.Data.EmailAddresses[0].EmailAddress
	}
	return ev
}
