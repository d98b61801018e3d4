package gdal

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	os.Setenv(ModeEnv, "local")
	os.Exit(m.Run())
}
