package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STORYKEEP_TEST_MODE") == "" {
			_ = os.Setenv("STORYKEEP_TEST_MODE", "1")
		}
	})
}
