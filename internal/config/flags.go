package config

import (
	"flag"
	"os"
	"time"

	"github.com/controlsuite/auditfiles/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   base URL of the ControlFile backend
//	-t string   API token
//	-d string   staging database path
//	-i int      online check interval in seconds
//	-r int      queue replay interval in seconds
//	-s string   storage backend ("controlfile" or "s3")
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-t", "-d", "-i", "-r", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendBaseURL, "b", cfg.BackendBaseURL, "base URL of the ControlFile backend")
	fs.StringVar(&cfg.APIToken, "t", cfg.APIToken, "API token for backend requests")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path to the staging database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	replayInterval := fs.Int("r", int(cfg.ReplayInterval.Seconds()), "queue replay interval (in seconds)")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend (controlfile or s3)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.ReplayInterval = time.Duration(*replayInterval) * time.Second
}
