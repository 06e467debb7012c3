package api

// ServerConfig represents the control API configuration.
type ServerConfig struct {
	Addr     string `help:"Control API listen address" default:":3271" env:"FLIGHTBRIDGE_API_ADDR"`
	Password string `kong:"-"`
}
