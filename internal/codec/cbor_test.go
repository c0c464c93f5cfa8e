package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID        string     `json:"id"`
	Seat      uint64     `json:"seat"`
	Labels    []string   `json:"labels"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func TestRoundTripKeepsTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 9, 18, 30, 1, 123456789, time.UTC)
	updated := created.Add(time.Minute)
	original := sampleRecord{
		ID:        "t-1",
		Seat:      12,
		Labels:    []string{"imax"},
		CreatedAt: created,
		UpdatedAt: &updated,
	}

	data, err := Marshal(original)
	require.NoError(t, err)

	var decoded sampleRecord
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestAbsentOptionalTimestampStaysNil(t *testing.T) {
	data, err := Marshal(sampleRecord{ID: "t-2"})
	require.NoError(t, err)

	var decoded sampleRecord
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Nil(t, decoded.UpdatedAt)
}

func TestEncodingIsDeterministic(t *testing.T) {
	a := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	b := map[string]int{"mid": 3, "alpha": 2, "zeta": 1}

	encodedA, err := Marshal(a)
	require.NoError(t, err)
	encodedB, err := Marshal(b)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(encodedA, encodedB))
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var decoded sampleRecord
	assert.Error(t, Unmarshal([]byte{0xff, 0x00}, &decoded))
}
