package compileinfo

import (
	"bytes"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	cases := []struct {
		info CompileInfo
		want string
	}{
		{CompileInfo{Package: "p", Version: "v1", GoVersion: "go1.18", Commit: "abc", CommitTime: "now"}, "p v1 built with go1.18 at commit abc (now)."},
		{CompileInfo{Package: "p", GoVersion: "go1.18"}, "at commit unknown"},
		{CompileInfo{Modified: true}, "modified after that commit"},
	}

	for _, c := range cases {
		if got := c.info.String(); !strings.Contains(got, c.want) {
			t.Fatalf("%q does not contain %q", got, c.want)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf)
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("Expected one line, got %q", buf.String())
	}
}
