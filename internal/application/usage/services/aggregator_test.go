package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veilgate/internal/domain/usage"
)

func TestAggregateUserUsageAppliesCoefficients(t *testing.T) {
	perNode := map[uint][]usage.UserStat{
		1: {{UID: 1, Value: 100}, {UID: 2, Value: 50}},
		2: {{UID: 1, Value: 75}},
	}
	coefficients := map[uint]float64{1: 2, 2: 1}

	result := AggregateUserUsage(perNode, coefficients)

	assert.Equal(t, []usage.UserUsage{
		{UID: 1, Value: 275},
		{UID: 2, Value: 100},
	}, result)
}

func TestAggregateUserUsageMissingCoefficientDefaultsToOne(t *testing.T) {
	perNode := map[uint][]usage.UserStat{
		9: {{UID: 5, Value: 40}},
	}

	result := AggregateUserUsage(perNode, nil)

	assert.Equal(t, []usage.UserUsage{{UID: 5, Value: 40}}, result)
}

func TestAggregateUserUsageFloorsScaledValues(t *testing.T) {
	perNode := map[uint][]usage.UserStat{
		1: {{UID: 1, Value: 3}},
	}
	coefficients := map[uint]float64{1: 0.5}

	result := AggregateUserUsage(perNode, coefficients)

	assert.Equal(t, []usage.UserUsage{{UID: 1, Value: 1}}, result)
}

func TestAggregateUserUsageNonPositiveCoefficientDefaultsToOne(t *testing.T) {
	perNode := map[uint][]usage.UserStat{
		1: {{UID: 1, Value: 10}},
	}
	coefficients := map[uint]float64{1: -2}

	result := AggregateUserUsage(perNode, coefficients)

	assert.Equal(t, []usage.UserUsage{{UID: 1, Value: 10}}, result)
}

func TestAggregateAdminUsageRollsUpToOwners(t *testing.T) {
	usages := []usage.UserUsage{
		{UID: 1, Value: 275},
		{UID: 2, Value: 100},
	}
	owners := map[uint]uint{1: 99, 2: 99}

	result := AggregateAdminUsage(usages, owners)

	assert.Equal(t, map[uint]int64{99: 375}, result)
}

func TestAggregateAdminUsageSkipsUnownedUsers(t *testing.T) {
	usages := []usage.UserUsage{
		{UID: 1, Value: 100},
		{UID: 2, Value: 50},
	}
	owners := map[uint]uint{1: 7}

	result := AggregateAdminUsage(usages, owners)

	assert.Equal(t, map[uint]int64{7: 100}, result)
}

func TestSumLinkStatsIgnoresCoefficients(t *testing.T) {
	links := []usage.LinkStat{
		{Up: 10},
		{Down: 20},
		{Up: 5, Down: 5},
	}

	totals := SumLinkStats(links)

	assert.Equal(t, usage.NodeTotals{Uplink: 15, Downlink: 25}, totals)
}

func TestSumLinkStatsEmptyIsZero(t *testing.T) {
	assert.True(t, SumLinkStats(nil).IsZero())
}
