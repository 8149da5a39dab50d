// Package pkgconfig provides a small abstraction for reading configuration values.
//
// Values come from a YAML file read by Viper. A dotenv file (when present) is
// loaded into the process environment first, and selected environment
// variables override file keys, so secrets such as API keys never need to be
// written into the config file.
//
// Business code should depend on the Config interface so it stays easy to test
// and does not care where values come from.
package pkgconfig
