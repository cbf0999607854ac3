package core

import (
	"errors"
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestAdvanceReserve(t *testing.T) {
	tests := []struct {
		name     string
		reserve  float64
		capacity float64
		desired  float64
		k        float64
		minimum  float64
		expected float64
	}{
		{"on target leaves reserve unchanged", 1000, 0.9, 0.9, 2, 1, 1000},
		{"zero gain freezes reserve", 1000, 0.3, 0.9, 0, 1, 1000},
		{"under target lowers reserve", 1000, 0.4, 0.9, 2, 1, 1000 * math.Exp(-1)},
		{"over target raises reserve exponentially", 1000, 1.2, 0.9, 2, 1, 1822.1188003905089},
		{"sold out on target still steps by increment", 1000, 1.0, 1.0, 2, 1, 1100},
		{"sold out with zero gain steps by increment", 1000, 1.0, 0.9, 0, 1, 1100},
		{"floor applies", 1, 0, 0.9, 5, 1, 1},
		{"floor above computed value", 50, 0, 0.9, 2, 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvanceReserve(tt.reserve, tt.capacity, tt.desired, tt.k, tt.minimum)
			check.True(t, math.Abs(got-tt.expected) <= 1e-9*tt.expected)
		})
	}
}

func TestAdvanceReserve_SoldOutIncrementsAtLeastFixedStep(t *testing.T) {
	for _, capacity := range []float64{1.0, 1.05, 1.2, 3} {
		for _, k := range []float64{0, 0.01, 2, 5} {
			next := AdvanceReserve(1000, capacity, 0.9, k, 1)
			check.True(t, next >= 1000+DefaultReserveIncrement)
		}
	}
}

func TestAdvanceReserve_NeverBelowMinimum(t *testing.T) {
	reserve := 1000.0
	for i := 0; i < 50; i++ {
		reserve = AdvanceReserve(reserve, 0, 0.9, 5, 1)
		check.True(t, reserve >= 1)
	}
	check.Equal(t, 1.0, reserve)
}

func TestReserveControllerConfig_Validate(t *testing.T) {
	valid := DefaultReserveControllerConfig()
	check.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *ReserveControllerConfig)
	}{
		{"desired above one", func(c *ReserveControllerConfig) { c.DesiredCapacity = 1.5 }},
		{"desired negative", func(c *ReserveControllerConfig) { c.DesiredCapacity = -0.1 }},
		{"negative sensitivity", func(c *ReserveControllerConfig) { c.Sensitivity = -1 }},
		{"negative increment", func(c *ReserveControllerConfig) { c.Increment = -10 }},
		{"zero minimum", func(c *ReserveControllerConfig) { c.MinimumReserve = 0 }},
		{"NaN sensitivity", func(c *ReserveControllerConfig) { c.Sensitivity = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReserveControllerConfig()
			tt.mutate(&config)
			err := config.Validate()
			check.True(t, errors.Is(err, ErrInvalidControllerArg))
		})
	}
}

func TestReserveController_Advance(t *testing.T) {
	controller, err := NewReserveController(DefaultReserveControllerConfig(), 1000)
	assert.NoError(t, err)
	check.Equal(t, 1000.0, controller.Reserve())

	// On target: unchanged
	check.Equal(t, 1000.0, controller.Advance(0.9))

	// Oversubscribed: at least the fixed increment
	next := controller.Advance(1.2)
	check.True(t, next >= 1100)
	check.Equal(t, next, controller.Reserve())
}

func TestReserveController_CustomIncrement(t *testing.T) {
	config := DefaultReserveControllerConfig()
	config.Increment = 500
	config.Sensitivity = 0

	controller, err := NewReserveController(config, 1000)
	assert.NoError(t, err)

	check.Equal(t, 1500.0, controller.Advance(1.0))
	check.Equal(t, 1500.0, controller.Advance(0.5))
}

func TestNewReserveController_InitialReserveFloored(t *testing.T) {
	config := DefaultReserveControllerConfig()
	config.MinimumReserve = 10

	controller, err := NewReserveController(config, 2)
	assert.NoError(t, err)
	check.Equal(t, 10.0, controller.Reserve())
}

func TestNewReserveController_Errors(t *testing.T) {
	_, err := NewReserveController(DefaultReserveControllerConfig(), -5)
	check.True(t, errors.Is(err, ErrNegativeReserve))

	config := DefaultReserveControllerConfig()
	config.MinimumReserve = -1
	_, err = NewReserveController(config, 1000)
	check.True(t, errors.Is(err, ErrInvalidControllerArg))
}
