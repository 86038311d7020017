package models

import "testing"

func TestPairKey(t *testing.T) {
	a, b := PairKey("bob", "alice")
	if a != "alice" || b != "bob" {
		t.Fatalf("PairKey not ordered: got (%s, %s)", a, b)
	}

	a, b = PairKey("alice", "bob")
	if a != "alice" || b != "bob" {
		t.Fatalf("PairKey not stable for pre-ordered input: got (%s, %s)", a, b)
	}
}

func TestWingmanMatchOtherParticipant(t *testing.T) {
	m := WingmanMatch{User1ID: "alice", User2ID: "bob"}

	if got := m.OtherParticipant("alice"); got != "bob" {
		t.Fatalf("expected bob, got %s", got)
	}
	if got := m.OtherParticipant("bob"); got != "alice" {
		t.Fatalf("expected alice, got %s", got)
	}
	if got := m.OtherParticipant("carol"); got != "" {
		t.Fatalf("expected empty string for non-participant, got %s", got)
	}
}

func TestWingmanMatchIsParticipant(t *testing.T) {
	m := WingmanMatch{User1ID: "alice", User2ID: "bob"}
	if !m.IsParticipant("alice") || !m.IsParticipant("bob") {
		t.Fatal("expected both pair members to be participants")
	}
	if m.IsParticipant("carol") {
		t.Fatal("expected non-member to not be a participant")
	}
}

func TestExperienceRank(t *testing.T) {
	if ExperienceRank(ExperienceBeginner) != 0 {
		t.Fatal("beginner should rank 0")
	}
	if ExperienceRank(ExperienceAdvanced) <= ExperienceRank(ExperienceIntermediate) {
		t.Fatal("advanced should outrank intermediate")
	}
	if ExperienceRank("made-up-level") != -1 {
		t.Fatal("unrecognized level should rank -1")
	}
}

func TestUserLocationIsSentinel(t *testing.T) {
	sentinel := UserLocation{Latitude: 0, Longitude: 0}
	if !sentinel.IsSentinel() {
		t.Fatal("(0,0) must be treated as the city_only sentinel")
	}

	real := UserLocation{Latitude: 40.7128, Longitude: -74.0060}
	if real.IsSentinel() {
		t.Fatal("a real coordinate must not be treated as the sentinel")
	}
}

func TestWingmanSessionBothConfirmed(t *testing.T) {
	s := WingmanSession{}
	if s.BothConfirmed() {
		t.Fatal("neither flag set, expected false")
	}
	s.User1CompletedConfirmedByUser2 = true
	if s.BothConfirmed() {
		t.Fatal("only one flag set, expected false")
	}
	s.User2CompletedConfirmedByUser1 = true
	if !s.BothConfirmed() {
		t.Fatal("both flags set, expected true")
	}
}

func TestClampReputation(t *testing.T) {
	cases := map[int]int{
		-100: ReputationMin,
		-5:   -5,
		0:    0,
		20:   20,
		100:  ReputationMax,
	}
	for in, want := range cases {
		if got := ClampReputation(in); got != want {
			t.Fatalf("ClampReputation(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestReputationBadge(t *testing.T) {
	cases := []struct {
		score int
		badge string
	}{
		{-5, BadgeRed},
		{-1, BadgeRed},
		{0, BadgeGreen},
		{9, BadgeGreen},
		{10, BadgeGold},
		{20, BadgeGold},
	}
	for _, c := range cases {
		if got := ReputationBadge(c.score); got != c.badge {
			t.Fatalf("ReputationBadge(%d) = %s, want %s", c.score, got, c.badge)
		}
	}
}
