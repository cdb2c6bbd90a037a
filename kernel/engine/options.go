package engine

import (
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/fabstatus/kernel/model"
	"github.com/sirupsen/logrus"
)

type options struct {
	monitoredTypes    []string
	concurrency       int
	suppressUnchanged bool
	log               *logrus.Entry
}

// Option configures an Aggregator.
type Option func(*options)

// WithMonitoredType declares parent types whose children are aggregated. When no type is declared the
// built-in model.GroupType is monitored.
func WithMonitoredType(typeNames ...string) Option {
	return func(o *options) {
		o.monitoredTypes = append(o.monitoredTypes, typeNames...)
	}
}

// WithPublishConcurrency bounds how many parents of a single event are published in parallel.
// Values below 1 mean sequential publishing.
func WithPublishConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithSuppressUnchanged skips publishing when the derived status equals the last status successfully
// published for that parent.
func WithSuppressUnchanged() Option {
	return func(o *options) {
		o.suppressUnchanged = true
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		concurrency: 1,
		log:         pfxlog.Logger().WithField("component", "aggregator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) registry() *model.TypeRegistry {
	return model.NewTypeRegistry(o.monitoredTypes...)
}
