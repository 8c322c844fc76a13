package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnlockConditions(t *testing.T) {
	uc, err := ParseUnlockConditions([]byte(`{"required_missions": ["m1", "m2"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, uc.RequiredMissions)
}

func TestParseUnlockConditions_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"empty payload":    nil,
		"truncated json":   []byte(`{"required_missions": [`),
		"empty mission id": []byte(`{"required_missions": ["m1", ""]}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUnlockConditions(raw)
			assert.Error(t, err)
		})
	}
}

func TestUnlockConditions_SatisfiedBy(t *testing.T) {
	uc := UnlockConditions{RequiredMissions: []string{"m1", "m2"}}

	assert.False(t, uc.SatisfiedBy(map[string]bool{"m1": true}))
	assert.True(t, uc.SatisfiedBy(map[string]bool{"m1": true, "m2": true}))
	assert.True(t, uc.SatisfiedBy(map[string]bool{"m1": true, "m2": true, "m3": true}))
}

func TestUnlockConditions_EmptySetNeverGrants(t *testing.T) {
	uc := UnlockConditions{}
	assert.False(t, uc.SatisfiedBy(map[string]bool{"m1": true}))
	assert.False(t, uc.SatisfiedBy(map[string]bool{}))
}

func TestUnlockConditions_Requires(t *testing.T) {
	uc := UnlockConditions{RequiredMissions: []string{"m1", "m2"}}
	assert.True(t, uc.Requires("m2"))
	assert.False(t, uc.Requires("m9"))
}

func TestUnlockConditions_ScanRejectsMalformed(t *testing.T) {
	var uc UnlockConditions
	err := uc.Scan([]byte(`"not an object"`))
	assert.Error(t, err)
}

func TestUnlockConditions_ScanRoundTrip(t *testing.T) {
	source := UnlockConditions{RequiredMissions: []string{"m1"}}
	raw, err := source.Value()
	require.NoError(t, err)

	var scanned UnlockConditions
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, source, scanned)
}
