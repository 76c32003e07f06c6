package logger

import (
	"go.uber.org/zap"
)

// New creates the root application logger. Development mode uses the
// console encoder; production emits JSON.
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
