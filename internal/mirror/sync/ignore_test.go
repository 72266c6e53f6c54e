package sync

import "testing"

func TestIgnoreList_Match(t *testing.T) {
	l := IgnoreList{".*", "*.swp", "node_modules"}

	tests := []struct {
		path string
		want bool
	}{
		{"/srv/docs/.git", true},
		{"/srv/docs/notes/.hidden.txt", true},
		{"/srv/docs/notes/draft.txt.swp", true},
		{"/srv/docs/node_modules", true},
		{"/srv/docs/notes/draft.txt", false},
	}
	for _, tt := range tests {
		if got := l.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIgnoreList_Validate(t *testing.T) {
	if err := (IgnoreList{"*.txt"}).Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
	if err := (IgnoreList{"[a-"}).Validate(); err == nil {
		t.Error("Validate() should reject a malformed pattern")
	}
}

func TestOpString(t *testing.T) {
	if OpCreate.String() != "create" || OpModify.String() != "modify" || OpDelete.String() != "delete" {
		t.Error("unexpected Op strings")
	}
	if Op(42).String() != "unknown" {
		t.Error("unknown Op should stringify as unknown")
	}
}
