package wrapper

import (
	"fmt"
	"time"
)

// Mode selects the batch execution strategy.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeLocal      Mode = "local"
	ModeRemote     Mode = "remote"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModeLocal, ModeRemote:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown backend %q (valid: sequential, local, remote)", s)
	}
}

// Config fixes a function's backend at construction time. Changing any of
// it means building a new function.
type Config struct {
	Mode    Mode
	Workers int // local backend pool size; <=0 means NumCPU

	WorkerURLs []string      // remote backend workers
	Timeout    time.Duration // remote per-call timeout
	Retries    int           // remote transport retries on other workers

	CacheCapacity int // <=0 means cache.DefaultCapacity
	DisableCache  bool
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeSequential, ModeLocal:
	case ModeRemote:
		if len(c.WorkerURLs) == 0 {
			return fmt.Errorf("remote backend requires at least one worker URL")
		}
	case "":
		return fmt.Errorf("backend mode not set")
	default:
		return fmt.Errorf("unknown backend %q", c.Mode)
	}
	return nil
}
