// ABOUTME: Global zerolog setup for the library packages
// ABOUTME: Plain console output on stderr so stdout stays free for command output
package config

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger sends zerolog output to stderr as text at the given level.
func InitLogger(level zerolog.Level) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		NoColor:    true,
	})
	zerolog.SetGlobalLevel(level)
}
