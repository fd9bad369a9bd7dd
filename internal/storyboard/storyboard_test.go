package storyboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func boardYAML(n int) string {
	var b strings.Builder
	b.WriteString("title: custom\nscenes:\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "  - title: Scene %d\n    prompt: prompt %d\n", i, i)
	}
	return b.String()
}

func TestDefault(t *testing.T) {
	sb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if len(sb.Scenes) != SceneCount {
		t.Fatalf("expected 5 scenes, got %d", len(sb.Scenes))
	}

	if !strings.HasPrefix(sb.Scenes[0].Title, "Scene 1:") {
		t.Errorf("unexpected first title %q", sb.Scenes[0].Title)
	}
	if !strings.HasPrefix(sb.Scenes[4].Title, "Scene 5:") {
		t.Errorf("unexpected last title %q", sb.Scenes[4].Title)
	}

	for i, s := range sb.Scenes {
		if s.Prompt == "" {
			t.Errorf("scene %d has empty prompt", i+1)
		}
		if strings.Contains(s.Prompt, "\n") {
			t.Errorf("scene %d prompt should be folded onto one line", i+1)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "scenes: [unterminated"},
		{"no scenes", "title: empty\nscenes: []\n"},
		{"too few scenes", "scenes:\n  - title: One\n    prompt: first\n  - title: Two\n    prompt: second\n"},
		{"too many scenes", boardYAML(SceneCount + 1)},
		{"missing prompt", "scenes:\n  - title: only a title\n"},
		{"missing title", "scenes:\n  - prompt: only a prompt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(boardYAML(SceneCount)), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	sb, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sb.Title != "custom" || len(sb.Scenes) != SceneCount || sb.Scenes[1].Prompt != "prompt 2" {
		t.Errorf("unexpected scenes %+v", sb.Scenes)
	}

	sb, err = Load("")
	if err != nil {
		t.Fatalf("Load default failed: %v", err)
	}
	if len(sb.Scenes) != 5 {
		t.Errorf("expected embedded storyboard, got %d scenes", len(sb.Scenes))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
