package bridge

import (
	"os"
	"testing"

	"github.com/arloliu/go-uartbridge/logger"
)

func TestMain(m *testing.M) {
	level, _ := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger.SetLevel(level)

	os.Exit(m.Run())
}
