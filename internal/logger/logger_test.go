package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	textTraceString   = `severity=TRACE message=www.traceExample.com`
	textDebugString   = `severity=DEBUG message=www.debugExample.com`
	textInfoString    = `severity=INFO message=www.infoExample.com`
	textWarningString = `severity=WARNING message=www.warningExample.com`
	textErrorString   = `severity=ERROR message=www.errorExample.com`
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func (t *LoggerTest) TearDownTest() {
	SetOutput(os.Stdout, cfg.TextLogFormat, cfg.InfoLogSeverity)
}

// //////////////////////////////////////////////////////////////////////
// Boilerplate
// //////////////////////////////////////////////////////////////////////

func getTestLoggingFunctions() []func() {
	return []func(){
		func() { Tracef("www.traceExample.com") },
		func() { Debugf("www.debugExample.com") },
		func() { Infof("www.infoExample.com") },
		func() { Warnf("www.warningExample.com") },
		func() { Errorf("www.errorExample.com") },
	}
}

// fetchLogOutput runs every logging function against a buffer at the given
// severity and returns the output of each call.
func fetchLogOutput(format cfg.LogFormat, severity cfg.LogSeverity) []string {
	var buf bytes.Buffer
	SetOutput(&buf, format, severity)

	var output []string
	for _, f := range getTestLoggingFunctions() {
		f()
		output = append(output, buf.String())
		buf.Reset()
	}
	return output
}

func (t *LoggerTest) validateOutput(expected []string, output []string) {
	for i := range output {
		if expected[i] == "" {
			assert.Equal(t.T(), expected[i], output[i])
		} else {
			assert.Regexp(t.T(), regexp.QuoteMeta(expected[i]), output[i])
		}
	}
}

// //////////////////////////////////////////////////////////////////////
// Tests
// //////////////////////////////////////////////////////////////////////

func (t *LoggerTest) TestTextFormatLogs_LogLevelOFF() {
	expected := []string{"", "", "", "", ""}

	t.validateOutput(expected, fetchLogOutput(cfg.TextLogFormat, cfg.OffLogSeverity))
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelERROR() {
	expected := []string{"", "", "", "", textErrorString}

	t.validateOutput(expected, fetchLogOutput(cfg.TextLogFormat, cfg.ErrorLogSeverity))
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelWARNING() {
	expected := []string{"", "", "", textWarningString, textErrorString}

	t.validateOutput(expected, fetchLogOutput(cfg.TextLogFormat, cfg.WarningLogSeverity))
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelINFO() {
	expected := []string{"", "", textInfoString, textWarningString, textErrorString}

	t.validateOutput(expected, fetchLogOutput(cfg.TextLogFormat, cfg.InfoLogSeverity))
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelTRACE() {
	expected := []string{textTraceString, textDebugString, textInfoString, textWarningString, textErrorString}

	t.validateOutput(expected, fetchLogOutput(cfg.TextLogFormat, cfg.TraceLogSeverity))
}

func (t *LoggerTest) TestJSONFormatLogs() {
	output := fetchLogOutput(cfg.JSONLogFormat, cfg.WarningLogSeverity)

	assert.Empty(t.T(), output[2])
	var record map[string]any
	require.NoError(t.T(), json.Unmarshal([]byte(output[3]), &record))
	assert.Equal(t.T(), "WARNING", record["severity"])
	assert.Equal(t.T(), "www.warningExample.com", record["message"])
}

func (t *LoggerTest) TestDefaultCarriesAttributes() {
	var buf bytes.Buffer
	SetOutput(&buf, cfg.TextLogFormat, cfg.InfoLogSeverity)

	Default().With("worker", 3).Info("picked up task")

	assert.Contains(t.T(), buf.String(), "worker=3")
	assert.Contains(t.T(), buf.String(), `message="picked up task"`)
}

func (t *LoggerTest) TestInitWritesToFile() {
	path := filepath.Join(t.T().TempDir(), "ezpool.log")

	err := Init(cfg.LoggingConfig{
		Severity:  cfg.DebugLogSeverity,
		Format:    cfg.JSONLogFormat,
		FilePath:  path,
		LogRotate: cfg.LogRotateLoggingConfig{MaxFileSizeMb: 1},
	})
	require.NoError(t.T(), err)
	Debugf("written to %s", "file")
	Close()

	content, err := os.ReadFile(path)
	require.NoError(t.T(), err)
	assert.Contains(t.T(), string(content), `"severity":"DEBUG"`)
	assert.Contains(t.T(), string(content), "written to file")
}

func (t *LoggerTest) TestInitBadPath() {
	err := Init(cfg.LoggingConfig{
		FilePath:  filepath.Join(t.T().TempDir(), "missing", "ezpool.log"),
		LogRotate: cfg.LogRotateLoggingConfig{MaxFileSizeMb: 1},
	})

	assert.Error(t.T(), err)
}
