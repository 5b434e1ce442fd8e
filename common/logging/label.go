package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ttacon/chalk"
)

// labelMap holds the labels attached to every entry of a logger.
type labelMap map[string]string

// LabelTag is the label naming the component which logs.
const LabelTag = "tag"

const (
	labelProcessID   = "pid"
	labelGoroutineID = "go_id"
	labelCaller      = "caller"
	labelPod         = "pod"
)

var funcNameStyle = chalk.Cyan.NewStyle()

func (m labelMap) clone() labelMap {
	c := make(labelMap, len(m)+3)
	for k, v := range m {
		c[k] = v
	}
	return c
}

// addCallerInfo records pid, goroutine id and the caller located numStackFrame frames up.
func (m labelMap) addCallerInfo(numStackFrame int) {
	m[labelProcessID] = strconv.Itoa(os.Getpid())

	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	m[labelGoroutineID] = "-1"
	if fields := bytes.Fields(buf); len(fields) >= 2 {
		m[labelGoroutineID] = string(fields[1])
	}

	caller := "???"
	if pc, file, line, ok := runtime.Caller(numStackFrame); ok {
		caller = fmt.Sprintf("%s():%s:%d", runtime.FuncForPC(pc).Name(), filepath.Base(file), line)
	}
	m[labelCaller] = caller
}

func (m labelMap) callerInfo(styled bool) string {
	prefix := "PID_" + m[labelProcessID] + ":GoID_" + m[labelGoroutineID]
	if !styled {
		return prefix + ":" + m[labelCaller]
	}
	return prefix + ":" + funcNameStyle.Style(m[labelCaller])
}
