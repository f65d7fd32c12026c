package fsmutil

import "testing"

func TestPending(t *testing.T) {
	const chat = int64(99)
	if !SetPending(chat, "export:reports") {
		t.Fatal("first SetPending should win")
	}
	if SetPending(chat, "export:reports") {
		t.Fatal("second SetPending should lose")
	}
	ClearPending(chat, "other")
	if SetPending(chat, "x") {
		t.Fatal("mismatched key must not clear")
	}
	ClearPending(chat, "export:reports")
	if !SetPending(chat, "x") {
		t.Fatal("cleared chat should accept again")
	}
	ClearPending(chat, "x")
}

func TestTextAnswers(t *testing.T) {
	for _, s := range []string{"cancel", " /Cancel "} {
		if !IsCancelText(s) {
			t.Fatalf("%q should cancel", s)
		}
	}
	if IsCancelText("cancelled") {
		t.Fatal("only exact words cancel")
	}
	if !IsKeepText(" . ") || IsKeepText("..") {
		t.Fatal("keep is a single dot")
	}
	for _, s := range []string{"-", "Skip", "/skip"} {
		if !IsSkipText(s) {
			t.Fatalf("%q should skip", s)
		}
	}
}
