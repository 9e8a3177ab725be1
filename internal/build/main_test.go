package build

import (
	"io"
	"os"
	"testing"

	"github.com/jongmin-chung/jamie/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}
