package lists

import (
	"time"

	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/codec"
	"github.com/smnsjas/go-splists/users"
)

type options struct {
	logger        *zap.Logger
	excludeHidden bool
	diag          codec.DiagnosticFunc
	loc           *time.Location
	users         *users.Directory
	skipUsers     bool
	timeout       time.Duration
}

func defaultOptions() options {
	return options{
		logger: zap.NewNop(),
	}
}

// Option configures a Site or a List.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHiddenFieldsExcluded drops hidden fields from the catalog, so that a
// hidden field cannot shadow a visible one with the same display name.
func WithHiddenFieldsExcluded() Option {
	return func(o *options) {
		o.excludeHidden = true
	}
}

// WithDiagnostic receives lenient value conversion failures. Without it they
// are logged at Warn level.
func WithDiagnostic(fn codec.DiagnosticFunc) Option {
	return func(o *options) {
		o.diag = fn
	}
}

// WithLocation sets the time zone of DateTime values. Without it, wire values
// are read as UTC and times are sent with their own wall clock.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithUsers sets the user directory used for User fields. On a Site it also
// skips loading the directory from the UserInfo list.
func WithUsers(d *users.Directory) Option {
	return func(o *options) {
		o.users = d
	}
}

// WithoutUserDirectory stops Site.List from loading the user directory.
func WithoutUserDirectory() Option {
	return func(o *options) {
		o.skipUsers = true
	}
}

// WithTimeout bounds every request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func (o options) codecOptions() []codec.Option {
	diag := o.diag
	if diag == nil {
		logger := o.logger
		diag = func(d codec.Diagnostic) {
			logger.Warn("value kept in wire form",
				zap.String("field", d.Field),
				zap.String("value", d.Value),
				zap.Error(d.Err))
		}
	}
	opts := []codec.Option{codec.WithDiagnostic(diag)}
	if o.loc != nil {
		opts = append(opts, codec.WithLocation(o.loc))
	}
	if o.users != nil {
		opts = append(opts, codec.WithUsers(o.users))
	}
	return opts
}
