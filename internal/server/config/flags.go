package config

import (
	"flag"
	"os"

	"github.com/snoofz/snofbase/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3778")
//	-f string   record file path
//	-p string   static pages directory
//	-s string   session JWT secret key
//
// Durations and mail settings are file/env-only: they change rarely and do
// not belong on the command line. Args are filtered through flagx.FilterArgs
// first, so flags owned by other components pass through untouched.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-p", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseFile, "f", config.DatabaseFile, "record database file")
	fs.StringVar(&config.PublicDir, "p", config.PublicDir, "static pages directory")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
