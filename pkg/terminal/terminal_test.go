package terminal

import (
	"runtime"
	"testing"

	"github.com/go-skink/skink/pkg/config"
)

func TestSubstitutePath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("paths are lowercased on windows")
	}
	tests := []struct {
		from, to, path, want string
	}{
		{"/build/dir", "/src/dir", "/build/dir/program.ska", "/src/dir/program.ska"},
		{"/build/dir", "/src/dir", "/build/dir-2/program.ska", "/build/dir-2/program.ska"},
		{"/build/dir/", "/src/dir/", "/build/dir/program.ska", "/src/dir/program.ska"},
		{"/build/dir", "/src/dir", "/program.ska", "/program.ska"},
	}
	for _, tt := range tests {
		term := &Term{conf: &config.Config{SubstitutePath: config.SubstitutePathRules{{From: tt.from, To: tt.to}}}}
		if got := term.substitutePath(tt.path); got != tt.want {
			t.Errorf("substitutePath(%q) with rule %q -> %q: got %q want %q", tt.path, tt.from, tt.to, got, tt.want)
		}
	}
}
