package shutdown

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	mu      sync.Mutex
	quiesce func()
)

// Register installs the hook that puts hardware into its safe state before
// the process exits. main registers a function that drives every output
// pin inactive.
func Register(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	quiesce = fn
}

func Shutdown(code int) {
	mu.Lock()
	fn := quiesce
	mu.Unlock()

	if fn != nil {
		fn()
		log.Info().Msg("Output pins quiesced")
	}
	os.Exit(code)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(1)
}
