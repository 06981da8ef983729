package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreOrderedAndReversible(t *testing.T) {
	migrations := getMigrations()

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotNil(t, m.Up, "migration %d", m.Version)
		assert.NotNil(t, m.Down, "migration %d", m.Version)
		assert.NotEmpty(t, m.Description)
	}
}

func TestReviewUniquenessIncludesReviewee(t *testing.T) {
	var keys []string
	for _, e := range ReviewUniqueKeys {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"ride_id", "reviewer_id", "reviewee_id"}, keys)
	assert.Equal(t, 6, getMigrations()[5].Version)
}

func TestDeclinedRequestsDoNotBlockResubmission(t *testing.T) {
	assert.NotContains(t, ActiveRequestStatuses, "DECLINED")
	assert.ElementsMatch(t, []string{"PENDING", "ACCEPTED", "WITHDRAWN"}, ActiveRequestStatuses)
}
