package booking

import (
	"fmt"
	"math/rand"
	"time"
)

// ticketMaxAttempts bounds regeneration on ticket number collisions. With
// 1000 suffixes per center per day a collision is already unusual; five
// misses in a row means the day is effectively sold out of suffixes.
const ticketMaxAttempts = 5

// generateTicketNumber builds a human-readable ticket like "KGL01-260825-042".
func generateTicketNumber(centerCode string, day time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", centerCode, day.Format("060102"), rand.Intn(1000))
}
