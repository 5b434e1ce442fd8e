package logging

import "github.com/mcdexio/yield-battle-vault/common/config"

// Variables only are used in logging package.
var (
	logToStdout      = config.GetBool("SERVER_LOG_TO_STDOUT", true)
	logToStackdriver = config.GetBool("SERVER_LOG_TO_STACKDRIVER", false)

	hostName = config.GetString("HOSTNAME", "localhost")
	logName  string
)

// Initialize initializes the logging package.
func Initialize(logname string) {
	logName = logname
	hostName = config.GetString("HOSTNAME", "localhost")

	if !logToStackdriver {
		return
	}
	Stackdriver().(*stackdriverOutput).refreshLogger(logName)
}

// Finalize flushes and closes the outputs.
func Finalize() {
	if stdout.IsLoaded() {
		Stdout().(*stdOutput).flush()
	}
	if stackdriverOut.IsLoaded() {
		if err := Stackdriver().(*stackdriverOutput).client.Close(); err != nil {
			panic(err)
		}
		stackdriverOut.Clear()
	}
}
