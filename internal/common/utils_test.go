package common

import "testing"

func TestContainsAnyFold(t *testing.T) {
	if !ContainsAnyFold("Patchy light Drizzle", "rain", "drizzle") {
		t.Fatal("expected a case-insensitive match")
	}
	if ContainsAnyFold("Sunny", "rain", "snow") {
		t.Fatal("expected no match")
	}
	if ContainsAnyFold("Sunny") {
		t.Fatal("expected no match without substrings")
	}
}
