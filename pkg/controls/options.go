package controls

import "go.uber.org/zap"

// Option configures FlyControls at bind time
type Option func(*FlyControls)

// WithMovementSpeed sets the translation speed in scene units per second
func WithMovementSpeed(speed float32) Option {
	return func(fc *FlyControls) {
		fc.MovementSpeed = speed
	}
}

// WithLookSpeed sets the pointer sensitivity multiplier
func WithLookSpeed(speed float32) Option {
	return func(fc *FlyControls) {
		fc.LookSpeed = speed
	}
}

// WithLogger sets the logger used for debug output. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(fc *FlyControls) {
		if logger != nil {
			fc.logger = logger
		}
	}
}
