//go:build !integration

package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func prepareFakeConfiguration(logger *logrus.Logger) func() {
	oldConfiguration := configuration
	configuration = NewConfig(logger)

	return func() {
		configuration = oldConfiguration
		configuration.ReloadConfiguration()
	}
}

func testCommandRun(args ...string) {
	app := cli.NewApp()
	app.Commands = []cli.Command{
		{
			Name:   "logtest",
			Action: func(cliCtx *cli.Context) {},
		},
	}

	ConfigureLogging(app)

	args = append([]string{"binary"}, args...)
	args = append(args, "logtest")

	_ = app.Run(args)
}

func TestHandleCliCtx(t *testing.T) {
	tests := map[string]struct {
		args              []string
		expectedLevel     logrus.Level
		expectedFormatter logrus.Formatter
	}{
		"no configuration specified": {
			expectedLevel:     logrus.InfoLevel,
			expectedFormatter: new(logrus.TextFormatter),
		},
		"--log-level specified": {
			args:              []string{"--log-level", "error"},
			expectedLevel:     logrus.ErrorLevel,
			expectedFormatter: new(logrus.TextFormatter),
		},
		"--debug specified": {
			args:              []string{"--debug"},
			expectedLevel:     logrus.DebugLevel,
			expectedFormatter: new(logrus.TextFormatter),
		},
		"--log-level and --debug specified": {
			args:              []string{"--log-level", "error", "--debug"},
			expectedLevel:     logrus.DebugLevel,
			expectedFormatter: new(logrus.TextFormatter),
		},
		"--log-format specified": {
			args:              []string{"--log-format", "json"},
			expectedLevel:     logrus.InfoLevel,
			expectedFormatter: new(logrus.JSONFormatter),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logger := logrus.New()
			defer prepareFakeConfiguration(logger)()

			testCommandRun(tt.args...)

			assert.Equal(t, tt.expectedLevel, logger.GetLevel())
			assert.IsType(t, tt.expectedFormatter, logger.Formatter)
		})
	}
}

func TestSetLevel(t *testing.T) {
	config := NewConfig(logrus.New())

	require.NoError(t, config.SetLevel("warning"))
	assert.Equal(t, logrus.WarnLevel, config.level)

	err := config.SetLevel("no-such-level")
	assert.ErrorContains(t, err, "failed to parse log level")
}

func TestSetFormat(t *testing.T) {
	config := NewConfig(logrus.New())

	require.NoError(t, config.SetFormat(FormatJSON))
	assert.IsType(t, new(logrus.JSONFormatter), config.format)

	err := config.SetFormat("xml")
	assert.ErrorContains(t, err, "unknown log format")
}
