package bolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ringguard/internal/screen/domain"
)

func TestDecodeSchedule_MissingFieldsUseDefaults(t *testing.T) {
	got, err := decodeSchedule([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSchedule(), got)

	got, err = decodeSchedule([]byte(`{"startHour":22,"endHour":7}`))
	require.NoError(t, err)
	assert.Equal(t, 22, got.StartHour)
	assert.Equal(t, 0, got.StartMinute)
	assert.Equal(t, 7, got.EndHour)
	assert.Equal(t, 0, got.EndMinute)
	assert.Equal(t, domain.AllDays, got.ActiveDays)
}

func TestDecodeSchedule_ExplicitZeroIsNotMissing(t *testing.T) {
	got, err := decodeSchedule([]byte(`{"startHour":0,"startMinute":0,"endHour":0,"endMinute":30,"activeDays":"6"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, got.StartHour)
	assert.Equal(t, 30, got.EndMinute)
	assert.Equal(t, "6", got.ActiveDays.String())
}

func TestDecodeSchedule_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":      `nope`,
		"bad days":      `{"activeDays":"0,x"}`,
		"empty days":    `{"activeDays":""}`,
		"hour overflow": `{"startHour":25}`,
		"wrong type":    `{"startHour":"nine"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeSchedule([]byte(raw))
			assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
		})
	}
}

func TestEncodeSchedule_FieldSet(t *testing.T) {
	days, err := domain.ParseDays("0,2")
	require.NoError(t, err)
	v, err := encodeSchedule(domain.Schedule{StartHour: 9, StartMinute: 0, EndHour: 20, EndMinute: 0, ActiveDays: days})
	require.NoError(t, err)
	assert.JSONEq(t, `{"startHour":9,"startMinute":0,"endHour":20,"endMinute":0,"activeDays":"0,2"}`, string(v))
}

func TestRejectionCodec(t *testing.T) {
	v, err := encodeRejection(domain.RejectionEntry{Number: "555-0100", Timestamp: 1754350200000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":"555-0100","timestamp":1754350200000}`, string(v))

	_, err = decodeRejection([]byte("[]"))
	assert.Error(t, err)
}

func TestScalarCodecs(t *testing.T) {
	assert.True(t, decodeBool(encodeBool(true)))
	assert.False(t, decodeBool(encodeBool(false)))
	assert.False(t, decodeBool(nil))
	assert.Equal(t, uint64(42), decodeUint64(encodeUint64(42)))
	assert.Zero(t, decodeUint64([]byte{1, 2}))
}
