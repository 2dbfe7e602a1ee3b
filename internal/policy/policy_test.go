package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPeriod(t *testing.T) {
	for _, d := range []int{7, 14, 21} {
		assert.True(t, ValidPeriod(d), d)
	}
	for _, d := range []int{-7, 0, 1, 8, 28} {
		assert.False(t, ValidPeriod(d), d)
	}
}

func TestCanRenew(t *testing.T) {
	p := Policy{MaxRenewals: 2}

	assert.True(t, p.CanRenew(0))
	assert.True(t, p.CanRenew(1))
	assert.False(t, p.CanRenew(2))
	assert.False(t, Policy{}.CanRenew(0))
}

func TestUnderActiveLimit(t *testing.T) {
	assert.True(t, Policy{}.UnderActiveLimit(1000), "zero means unbounded")

	p := Policy{MaxActiveReservations: 3}
	assert.True(t, p.UnderActiveLimit(2))
	assert.False(t, p.UnderActiveLimit(3))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Error(t, Policy{MaxRenewals: -1}.Validate())
	assert.Error(t, Policy{MaxActiveReservations: -1}.Validate())
	assert.Error(t, Policy{DueSoonDays: -1}.Validate())
}
