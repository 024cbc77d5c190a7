package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON production logger at the given level. Unknown levels
// fall back to info.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// RedactKey keeps the environment prefix of a gateway key id and masks the
// rest, e.g. "rzp_test_AbCd1234" becomes "rzp_test_****".
func RedactKey(keyID string) string {
	if keyID == "" {
		return ""
	}
	idx := strings.LastIndex(keyID, "_")
	if idx < 0 || idx == len(keyID)-1 {
		return "****"
	}
	return keyID[:idx+1] + "****"
}
