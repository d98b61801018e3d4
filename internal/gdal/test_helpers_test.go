package gdal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func useLocalGDAL(t *testing.T) {
	t.Helper()
	t.Setenv(ModeEnv, "local")
}

func writeScript(t *testing.T, path, contents string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake GDAL tools need a POSIX shell")
	}
	if err := os.WriteFile(path, []byte(contents), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func prependPath(t *testing.T, dir string) {
	t.Helper()
	old := os.Getenv("PATH")
	t.Setenv("PATH", dir+string(os.PathListSeparator)+old)
}

// fakeTool installs a tool named name that records its arguments, one per
// line, and then runs body. It returns the path of the argument log.
func fakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	argsFile := filepath.Join(dir, name+".args")
	writeScript(t, filepath.Join(dir, name), "#!/bin/sh\n"+
		"for a in \"$@\"; do printf '%s\\n' \"$a\"; done > '"+argsFile+"'\n"+
		body+"\n")
	return argsFile
}

func readArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func containsSeq(args []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		match := true
		for j := range seq {
			if args[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
