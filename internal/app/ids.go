package app

import (
	"strings"

	"github.com/google/uuid"
)

// canonicalTicketID returns the lower-case hyphenated form of id, or false if
// id is not a UUID and therefore cannot name a ticket.
func canonicalTicketID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
