package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mcdexio/yield-battle-vault/cache/cacher"
	"github.com/mcdexio/yield-battle-vault/env"
	"github.com/ttacon/chalk"
)

const timeFormat = "2006-01-02 15:04:05.000"

var (
	styleMap = map[level]chalk.Style{
		debugLevel:    chalk.ResetColor.NewStyle(),
		infoLevel:     chalk.Green.NewStyle(),
		noticeLevel:   chalk.Cyan.NewStyle(),
		warnLevel:     chalk.Yellow.NewStyle(),
		errorLevel:    chalk.Red.NewStyle(),
		criticalLevel: chalk.Magenta.NewStyle(),
	}

	timeStyle = chalk.ResetColor.NewStyle().WithTextStyle(chalk.Inverse)
	tagStyle  = chalk.ResetColor.NewStyle().WithBackground(chalk.Blue)

	// *stdOutput
	stdout = cacher.NewConst(func() interface{} {
		return newStdOutput(os.Stdout, !env.IsCI())
	})
)

// Stdout returns the stdout output.
func Stdout() output {
	return stdout.Get().(*stdOutput)
}

type stdOutput struct {
	mu        sync.Mutex
	writer    io.Writer
	withColor bool
}

func newStdOutput(w io.Writer, withColor bool) *stdOutput {
	return &stdOutput{writer: w, withColor: withColor}
}

func (o *stdOutput) output(level level, labels labelMap, log string) {
	ts := time.Now().Format(timeFormat)
	sv := fmt.Sprintf("%6s", level.String())
	tag := fmt.Sprintf("%16s", labels[LabelTag])

	var line string
	if o.withColor {
		if level <= errorLevel {
			log = labels.callerInfo(true) + ": " + log
		}
		line = fmt.Sprintf("%s %s %s %s",
			timeStyle.Style(ts), styleMap[level].Style(sv), tagStyle.Style(tag), log)
	} else {
		if level <= errorLevel {
			log = labels.callerInfo(false) + ": " + log
		}
		line = fmt.Sprintf("%s %s %s %s", ts, sv, tag, removeColor(log))
	}

	o.mu.Lock()
	_, _ = io.WriteString(o.writer, line)
	o.mu.Unlock()
}

func (o *stdOutput) flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if f, ok := o.writer.(*os.File); ok {
		_ = f.Sync()
	}
}
