package config

// LoggingConfig holds logging-related settings; Level is populated from RUST_LOG.
type LoggingConfig struct {
	Level      string `mapstructure:"LEVEL"       validate:"required,log_level"`
	FilePath   string `mapstructure:"FILE"        validate:"omitempty"`
	Format     string `mapstructure:"FORMAT"      validate:"omitempty,log_format"`
	MaxSize    int    `mapstructure:"MAX_SIZE"    validate:"required,min=1,max=1000"`
	MaxBackups int    `mapstructure:"MAX_BACKUPS" validate:"required,min=0,max=100"`
	MaxAge     int    `mapstructure:"MAX_AGE"     validate:"required,min=1,max=365"`
}
