package batch

import "testing"

func TestSplit_Empty(t *testing.T) {
	t.Parallel()
	if got := Split(nil, 5); got != nil {
		t.Errorf("Split(nil, 5) = %v, want nil", got)
	}
}

func TestSplit_UnderMax(t *testing.T) {
	t.Parallel()
	got := Split([]string{"a", "b"}, 5)
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("Split = %v, want one batch of 2", got)
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	t.Parallel()
	prompts := []string{"a", "b", "c", "d"}
	got := Split(prompts, 2)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0][0] != "a" || got[0][1] != "b" || got[1][0] != "c" || got[1][1] != "d" {
		t.Errorf("Split = %v, order not preserved", got)
	}
}

func TestSplit_Remainder(t *testing.T) {
	t.Parallel()
	prompts := []string{"a", "b", "c", "d", "e"}
	got := Split(prompts, 2)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if len(got[2]) != 1 || got[2][0] != "e" {
		t.Errorf("last batch = %v, want [e]", got[2])
	}
}

func TestSplit_NeverSplitsASinglePrompt(t *testing.T) {
	t.Parallel()
	prompts := []string{"only-one"}
	got := Split(prompts, 1)
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("Split = %v, want a single one-element batch", got)
	}
}
