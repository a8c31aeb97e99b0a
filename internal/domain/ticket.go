package domain

import "time"

// MaxTicketsPerTaxID is the default issuance cap for a single identity.
const MaxTicketsPerTaxID = 3

// Ticket is one issued admission right. Tickets are never updated or deleted.
type Ticket struct {
	ID        string
	TaxID     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// TicketDraft carries the holder data for a ticket that has not been stored yet.
type TicketDraft struct {
	TaxID     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}
