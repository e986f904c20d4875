package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainreservation "automarket/internal/domain/reservation"
)

func TestActiveStatusValues(t *testing.T) {
	assert.ElementsMatch(t, []string{
		string(domainreservation.StatusPending),
		string(domainreservation.StatusScheduled),
		string(domainreservation.StatusReserved),
		string(domainreservation.StatusConfirmed),
	}, activeStatusValues())
}

func TestExpirableStatusValues(t *testing.T) {
	values := expirableStatusValues()
	assert.ElementsMatch(t, []string{
		string(domainreservation.StatusPending),
		string(domainreservation.StatusScheduled),
		string(domainreservation.StatusReserved),
	}, values)
	assert.NotContains(t, values, string(domainreservation.StatusConfirmed),
		"confirmed visits never expire and must not re-enter the sweep batch")
}
