// Package config loads and validates the transducer service configuration.
//
// Loading order is defaults, then the YAML file, then GRAYLOGIC_* environment
// variables. Validate reports every problem at once so an operator can fix a
// config file in one pass.
//
// Security Considerations:
//   - Secrets (MQTT password, InfluxDB token, JWT secret) belong in the environment
//   - The config file should have restricted permissions (0600)
//   - Leaving security.jwt.secret empty disables API authentication
//
// Usage:
//
//	cfg, err := config.Load("configs/transducerd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
