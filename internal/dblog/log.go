// Package dblog builds the single shared logger the pager and btree
// packages log through. It is always injected, never a package global,
// matching the single-threaded, single-owner model the store otherwise
// follows.
package dblog

import "go.uber.org/zap"

// New builds a SugaredLogger. debug selects zap's development encoder
// (human-readable, caller line included); otherwise it uses the production
// JSON encoder.
func New(debug bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		// zap's constructors only fail on a broken sink/encoder config,
		// neither of which applies to these fixed calls.
		panic(err)
	}
	return l.Sugar()
}

// Noop returns a logger that discards everything, for tests and for callers
// that don't want log output.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
