package config

// StorageConfig points at the embedded key-value database file, DB_PATH.
type StorageConfig struct {
	Path       string `mapstructure:"PATH" validate:"required"`
	SyncWrites bool   `mapstructure:"SYNC_WRITES"`
}
