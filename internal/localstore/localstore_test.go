package localstore

import (
	"testing"
)

type blob struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

func TestRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	in := []blob{{Name: "Ana", Points: 50}, {Name: "Bia", Points: 110}}
	if err := s.Set("clients", in); err != nil {
		t.Fatal(err)
	}

	var out []blob
	found, err := s.Get("clients", &out)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected stored blob to be found")
	}
	if len(out) != 2 || out[1].Points != 110 {
		t.Errorf("unexpected round-trip result: %+v", out)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out []blob
	found, err := s.Get("never-written", &out)
	if err != nil {
		t.Fatalf("missing key must not error: %v", err)
	}
	if found {
		t.Error("missing key reported as found")
	}
}

func TestOverwrite(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("settings", blob{Name: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("settings", blob{Name: "v2"}); err != nil {
		t.Fatal(err)
	}
	var out blob
	if _, err := s.Get("settings", &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "v2" {
		t.Errorf("got %q, want v2", out.Name)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Set("a", blob{})
	_ = s.Set("b", blob{})

	if err := s.Remove("a"); err != nil {
		t.Fatal(err)
	}
	var out blob
	if found, _ := s.Get("a", &out); found {
		t.Error("removed key still present")
	}
	if err := s.Remove("a"); err != nil {
		t.Errorf("removing a missing key must not error: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if found, _ := s.Get("b", &out); found {
		t.Error("clear left a blob behind")
	}
}
