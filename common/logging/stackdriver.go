package logging

import (
	"context"

	"cloud.google.com/go/logging"
	"github.com/mcdexio/yield-battle-vault/cache/cacher"
	"github.com/mcdexio/yield-battle-vault/common/config"
)

// *stackdriverOutput
var stackdriverOut = cacher.NewConst(func() interface{} {
	stackdriver, err := newStackdriverOutput(logName)
	if err != nil {
		panic(err)
	}
	return stackdriver
})

// Stackdriver returns the google cloud logging output.
func Stackdriver() output {
	return stackdriverOut.Get().(*stackdriverOutput)
}

type stackdriverOutput struct {
	client *logging.Client
	logger *logging.Logger
}

func newStackdriverOutput(logname string) (*stackdriverOutput, error) {
	ctx := context.Background()
	client, err := logging.NewClient(ctx, config.GetString("SERVER_PROJECT_ID"))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx); err != nil {
		return nil, err
	}
	o := &stackdriverOutput{client: client}
	o.refreshLogger(logname)
	return o, nil
}

func (o *stackdriverOutput) refreshLogger(logname string) {
	if o.logger != nil || logname == "" {
		return
	}
	o.logger = o.client.Logger(logname)
}

func (o *stackdriverOutput) output(level level, labels labelMap, log string) {
	if o.logger == nil {
		return
	}
	o.logger.Log(logging.Entry{
		Severity: level.Severity(),
		Labels:   labels,
		Payload:  removeColor(log),
	})
}
