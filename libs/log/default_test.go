package log_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightvote/lightvote/libs/log"
)

func TestNewDefaultLogger(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format": {
			format:    "foo",
			level:     log.LogLevelInfo,
			expectErr: true,
		},
		"invalid level": {
			format:    log.LogFormatJSON,
			level:     "foo",
			expectErr: true,
		},
		"valid format and level": {
			format:    log.LogFormatJSON,
			level:     log.LogLevelInfo,
			expectErr: false,
		},
		"plain format": {
			format:    log.LogFormatPlain,
			level:     log.LogLevelDebug,
			expectErr: false,
		},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			_, err := log.NewDefaultLogger(tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDefaultLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.NewDefaultLoggerWithOutput(log.LogFormatJSON, log.LogLevelInfo, &buf)
	require.NoError(t, err)

	logger.With("module", "light").Info("slot scanned", "slot", 42)
	logger.Debug("dropped")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "slot scanned", line["message"])
	require.Equal(t, "light", line["module"])
	require.EqualValues(t, 42, line["slot"])
}

func TestOverrideWithNewLogger(t *testing.T) {
	logger := log.MustNewDefaultLogger(log.LogFormatJSON, log.LogLevelInfo)
	require.NoError(t, log.OverrideWithNewLogger(logger, log.LogFormatPlain, log.LogLevelDebug))
	require.Error(t, log.OverrideWithNewLogger(logger, "foo", log.LogLevelDebug))
}
