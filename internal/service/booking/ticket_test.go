package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTicketNumberFormat(t *testing.T) {
	day := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.Local)
	pattern := regexp.MustCompile(`^KGL01-260825-\d{3}$`)

	for i := 0; i < 100; i++ {
		ticket := generateTicketNumber("KGL01", day)
		assert.Regexp(t, pattern, ticket)
	}
}
