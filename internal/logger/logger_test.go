package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zapcore.InfoLevel))
	suite.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	tests := []struct {
		level   string
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{level: "debug", enabled: zapcore.DebugLevel, muted: zapcore.DebugLevel - 1},
		{level: "WARN", enabled: zapcore.WarnLevel, muted: zapcore.InfoLevel},
		{level: "error", enabled: zapcore.ErrorLevel, muted: zapcore.WarnLevel},
		{level: "bogus", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		suite.Run(tt.level, func() {
			logger, err := NewLoggerWithLevel(tt.level)
			suite.NoError(err)
			suite.True(logger.Core().Enabled(tt.enabled))
			suite.False(logger.Core().Enabled(tt.muted))
		})
	}
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	err := logger.Sync()
	suite.NoError(err)
}

func (suite *LoggerTestSuite) TestNamedOnNilLogger() {
	var logger *Logger

	named := logger.Named("executor")
	suite.NotNil(named)
	named.Info("should not panic", zap.String("component", "executor"))
}

func (suite *LoggerTestSuite) TestNop() {
	logger := NewNop()
	logger.Named("ledger").Warn("discarded")
	suite.NoError(logger.Sync())
}
