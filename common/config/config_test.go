package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func (s *ConfigSuite) TestDefaultsAndPanics() {
	s.Require().Equal("fallback", GetString("CONFIG_TEST_MISSING", "fallback"))
	s.Require().Equal(int64(7), GetInt64("CONFIG_TEST_MISSING", 7))
	s.Require().Panics(func() {
		GetString("CONFIG_TEST_MISSING")
	})
	s.Require().Panics(func() {
		GetBool("CONFIG_TEST_MISSING")
	})
}

func (s *ConfigSuite) TestTypedGetters() {
	SetString("CONFIG_TEST_BOOL", "true")
	SetString("CONFIG_TEST_INT", "42")
	SetString("CONFIG_TEST_DURATION", "90s")
	SetString("CONFIG_TEST_LIST", "50, 30,20")

	s.Require().True(GetBool("CONFIG_TEST_BOOL"))
	s.Require().Equal(42, GetInt("CONFIG_TEST_INT"))
	s.Require().Equal(90*time.Second, GetDuration("CONFIG_TEST_DURATION"))
	s.Require().Equal([]int64{50, 30, 20}, GetInt64List("CONFIG_TEST_LIST"))

	// overriding drops the memoized value.
	SetString("CONFIG_TEST_INT", "43")
	s.Require().Equal(43, GetInt("CONFIG_TEST_INT"))

	SetString("CONFIG_TEST_BAD_INT", "abc")
	s.Require().Panics(func() {
		GetInt("CONFIG_TEST_BAD_INT")
	})
}

func (s *ConfigSuite) TestLoadDotEnv() {
	dir := s.T().TempDir()
	file := filepath.Join(dir, "test.env")
	s.Require().NoError(os.WriteFile(file, []byte("CONFIG_TEST_FROM_FILE=hello\nCONFIG_TEST_KEEP=file\n"), 0o600))
	SetString("CONFIG_TEST_KEEP", "process")

	s.Require().NoError(LoadDotEnv(file, filepath.Join(dir, "missing.env")))
	s.Require().Equal("hello", GetString("CONFIG_TEST_FROM_FILE"))
	s.Require().Equal("process", GetString("CONFIG_TEST_KEEP"))
	s.Require().Equal([]string{"hello"}, Optional("CONFIG_TEST_NOPE", "CONFIG_TEST_FROM_FILE"))
}

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}
