package erp

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes the service's environment variables, e.g. BEERGAME_LISTEN_ADDR.
const EnvPrefix = "beergame"

// Config is the ERP service configuration.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8000"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("erp config: %w", err)
	}
	return c, nil
}
