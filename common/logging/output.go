package logging

import (
	"strings"

	"github.com/mcdexio/yield-battle-vault/cache/cacher"
)

// defaultOut is the *multiOutput shared by loggers without an explicit output.
var defaultOut = cacher.NewConst(func() interface{} {
	o := multiOutput{}
	if logToStdout {
		o = append(o, Stdout())
	}
	if logToStackdriver {
		o = append(o, Stackdriver())
	}
	return &o
})

func defaultOutput() output {
	return defaultOut.Get().(*multiOutput)
}

// output defines the log output interface.
type output interface {
	output(level level, labels labelMap, log string)
}

// multiOutput fans an entry out to every sub output in order.
type multiOutput []output

func (o *multiOutput) output(level level, labels labelMap, log string) {
	for _, out := range *o {
		out.output(level, labels, log)
	}
}

// removeColor returns a new string with color code removed.
func removeColor(s string) string {
	if !strings.Contains(s, "\033") {
		return s
	}
	sb := strings.Builder{}
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for ; i < len(s) && s[i] != 'm'; i++ {
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
