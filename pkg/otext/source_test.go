package otext

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSourceIsASCII(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		for i, line := range bytes.Split(b, []byte("\n")) {
			for _, c := range line {
				if c >= 0x80 {
					t.Fatalf("%s:%d: non ASCII text", f, i+1)
				}
			}
		}
	}
}
