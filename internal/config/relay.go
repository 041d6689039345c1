package config

import "time"

// RelayConfig holds transport-facing settings for the listener.
type RelayConfig struct {
	Host            string        `mapstructure:"HOST"              validate:"required,hostname_port"`
	IdleTimeout     time.Duration `mapstructure:"IDLE_TIMEOUT"      validate:"required"`
	WriteTimeout    time.Duration `mapstructure:"WRITE_TIMEOUT"     validate:"required"`
	SendBufferSize  int           `mapstructure:"SEND_BUFFER_SIZE"  validate:"required,min=16,max=8192"`
	MaxMessageBytes int           `mapstructure:"MAX_MESSAGE_BYTES" validate:"required,min=1024"`
}
