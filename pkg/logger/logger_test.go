package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func restoreLoggers(t *testing.T) {
	prevLog, prevPkg, prevGlobal := Log, log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		Log, log.Logger = prevLog, prevPkg
		zerolog.SetGlobalLevel(prevGlobal)
	})
}

func TestSetLevel_RaisesPackageLogger(t *testing.T) {
	restoreLoggers(t)

	Setup("info", "json")
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetLevel_InvalidFallsBackToInfo(t *testing.T) {
	restoreLoggers(t)

	Setup("loud", "console")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
}
