package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSeverityUnmarshalText(t *testing.T) {
	testCases := []struct {
		input   string
		want    LogSeverity
		wantErr bool
	}{
		{"trace", TraceLogSeverity, false},
		{"Debug", DebugLogSeverity, false},
		{"INFO", InfoLogSeverity, false},
		{"warning", WarningLogSeverity, false},
		{"error", ErrorLogSeverity, false},
		{"off", OffLogSeverity, false},
		{"warn", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			var l LogSeverity

			err := l.UnmarshalText([]byte(tc.input))

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, l)
		})
	}
}

func TestLogSeverityRank(t *testing.T) {
	assert.Equal(t, 0, TraceLogSeverity.Rank())
	assert.Equal(t, 5, OffLogSeverity.Rank())
	assert.Less(t, DebugLogSeverity.Rank(), WarningLogSeverity.Rank())
	assert.Equal(t, -1, LogSeverity("VERBOSE").Rank())
}

func TestLogFormatUnmarshalText(t *testing.T) {
	var f LogFormat

	require.NoError(t, f.UnmarshalText([]byte("JSON")))
	assert.Equal(t, JSONLogFormat, f)
	require.NoError(t, f.UnmarshalText([]byte("text")))
	assert.Equal(t, TextLogFormat, f)
	assert.Error(t, f.UnmarshalText([]byte("xml")))
}
