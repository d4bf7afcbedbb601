package benchmark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		want         string
	}{
		{
			name:         "retail benchmark",
			instructions: "We are analyzing retail e-commerce companies for market research",
			want:         "analyzing_retail_e",
		},
		{
			name:         "simple task",
			instructions: "Summarize manufacturing companies briefly",
			want:         "summarize_manufacturing_companies",
		},
		{
			name:         "fewer than three significant words",
			instructions: "The pharma sector",
			want:         "pharma_sector",
		},
		{
			name:         "all stop words",
			instructions: "we are the for of to",
			want:         "general",
		},
		{
			name:         "all short words",
			instructions: "go up to it",
			want:         "general",
		},
		{
			name:         "empty",
			instructions: "",
			want:         "general",
		},
		{
			name:         "punctuation-only word skipped",
			instructions: "--- compare logistics providers",
			want:         "compare_logistics_providers",
		},
		{
			name: "only first twenty words considered",
			instructions: strings.Repeat("the ", 20) +
				"logistics warehousing freight",
			want: "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identity(tt.instructions)
			if got != tt.want {
				t.Errorf("Identity(%q) = %q, want %q", tt.instructions, got, tt.want)
			}
		})
	}
}

func TestIdentityStable(t *testing.T) {
	ins := "Benchmark European software vendors by product focus"
	first := Identity(ins)
	for i := 0; i < 5; i++ {
		if got := Identity(ins); got != first {
			t.Fatalf("identity not stable: %q vs %q", got, first)
		}
	}
}

func TestParseVisualCheck(t *testing.T) {
	content := "Describe what each company sells.\nVISUAL_CHECK: shopping cart icon\nKeep it short."
	ins := Parse(content)

	if ins.VisualCheck != "shopping cart icon" {
		t.Errorf("expected visual check directive, got %q", ins.VisualCheck)
	}
	if strings.Contains(ins.Mission, "VISUAL_CHECK") {
		t.Errorf("mission should not retain the directive line: %q", ins.Mission)
	}
	if !strings.Contains(ins.Mission, "Keep it short.") {
		t.Errorf("mission lost surrounding text: %q", ins.Mission)
	}
}

func TestParseWithoutVisualCheck(t *testing.T) {
	ins := Parse("Just describe the company.")
	if ins.VisualCheck != "" {
		t.Errorf("expected empty visual check, got %q", ins.VisualCheck)
	}
	if ins.Mission != "Just describe the company." {
		t.Errorf("unexpected mission: %q", ins.Mission)
	}
}

func TestLoadInstructions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task_instructions.txt")
	if err := os.WriteFile(path, []byte("Analyze chemical suppliers\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ins, err := LoadInstructions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ins.Mission != "Analyze chemical suppliers" {
		t.Errorf("unexpected mission: %q", ins.Mission)
	}
}

func TestLoadInstructionsMissingFile(t *testing.T) {
	_, err := LoadInstructions(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("expected error for missing instructions file")
	}
}

func TestLoadInstructionsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_instructions.txt")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadInstructions(path); err == nil {
		t.Error("expected error for empty instructions file")
	}
}
