package clipboard

import "testing"

func TestMockRoundTrip(t *testing.T) {
	m := &Mock{}
	if err := m.Write([]byte("bc")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "bc" {
		t.Fatalf("got %q, want %q", got, "bc")
	}
}

func TestMockRejectsOversizedPayload(t *testing.T) {
	m := &Mock{}
	big := make([]byte, MaxBytes+1)
	if err := m.Write(big); err != ErrTooLarge {
		t.Fatalf("got err=%v, want ErrTooLarge", err)
	}
}

func TestMockReadReturnsCopy(t *testing.T) {
	m := &Mock{Data: []byte("abc")}
	got, _ := m.Read()
	got[0] = 'z'
	if string(m.Data) != "abc" {
		t.Fatalf("Read mutated backing store: %q", m.Data)
	}
}
