package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DRIFTBOARD_TEST_MODE") == "" {
			_ = os.Setenv("DRIFTBOARD_TEST_MODE", "1")
		}
	})
}
