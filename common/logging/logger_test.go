package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerSuite struct {
	suite.Suite
}

func (s *LoggerSuite) TestWriterLogger() {
	var buf bytes.Buffer
	l := NewWriterLogger("vault", &buf)

	l.Info("deposit user=%s amount=%d", "0xabc", 10)
	out := buf.String()
	s.Require().Contains(out, " INFO")
	s.Require().Contains(out, "vault")
	s.Require().Contains(out, "deposit user=0xabc amount=10")
	s.Require().NotContains(out, "PID_")

	buf.Reset()
	l.Error("transfer failed")
	s.Require().Contains(buf.String(), "PID_")
	s.Require().Contains(buf.String(), "logger_test.go")
}

func (s *LoggerSuite) TestCriticalExits() {
	var buf bytes.Buffer
	l := newLogger("crit", newStdOutput(&buf, false))
	code := -1
	l.exit = func(c int) { code = c }

	l.Critical("boom")
	s.Require().Equal(1, code)
	s.Require().True(strings.Contains(buf.String(), "boom"))
}

func (s *LoggerSuite) TestWithKeepsParentLabels() {
	var buf bytes.Buffer
	parent := newLogger("parent", newStdOutput(&buf, false))
	child := parent.With("battle", "1").(*logger)

	s.Require().Equal("parent", child.labels[LabelTag])
	s.Require().Equal("1", child.labels["battle"])
	_, found := parent.labels["battle"]
	s.Require().False(found)
}

func (s *LoggerSuite) TestRemoveColor() {
	s.Require().Equal("plain", removeColor("plain"))
	s.Require().Equal("red", removeColor("\033[31mred\033[0m"))
}

func TestLogger(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}
