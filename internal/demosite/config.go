package demosite

// Config holds configuration for the fixture site.
type Config struct {
	// Port is the port on which the site listens.
	Port int

	// Account is the report suite segment of the beacon path, as in
	// /b/ss/<account>/1/.
	Account string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:    9999,
		Account: "demo",
	}
}
