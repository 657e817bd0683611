package textnorm

import (
	"reflect"
	"testing"
)

func TestTokensStripsAccentsAndPunctuation(t *testing.T) {
	got := Tokens("  José-María  PEÑA, Núñez ")
	want := []string{"jose", "maria", "pena", "nunez"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokensEmptyInput(t *testing.T) {
	if got := Tokens(" -- "); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}
