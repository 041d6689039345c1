package config

// LimiterConfig sizes the per-session token bucket used to pace
// outbound delivery. Inbound message handling is not paced.
type LimiterConfig struct {
	EventsPerSecond float64 `mapstructure:"EVENTS_PER_SECOND" validate:"required,gt=0"`
	Burst           int     `mapstructure:"BURST"             validate:"required,min=1"`
}
