// Package config provides configuration loading and validation for sendfile.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SENDFILE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts, err := cfg.Send.Options()
//
// # Environment Variables
//
// All config keys map to environment variables with SENDFILE_ prefix:
//   - server.port → SENDFILE_SERVER_PORT
//   - send.root → SENDFILE_SEND_ROOT
//   - send.extensions → SENDFILE_SEND_EXTENSIONS (comma separated)
//
// # Send Options
//
// send.index and send.extensions accept false, a string or a list of
// strings. send.max_age accepts milliseconds or a duration string such as
// "30d". Invalid values fail Load with an error wrapping
// sendfile.ErrInvalidOption.
package config
