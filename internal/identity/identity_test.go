package identity

import "testing"

func TestNormalizeAllowedIPs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare ipv4", "10.0.0.5", "10.0.0.5/32"},
		{"bare ipv6", "fd00::5", "fd00::5/128"},
		{"sorted and trimmed", " 10.0.0.9/32 , 10.0.0.10/32", "10.0.0.10/32,10.0.0.9/32"},
		{"drops empties", "10.0.0.5/32,, ,", "10.0.0.5/32"},
		{"canonical ipv6 text", "FD00:0:0::0005/128", "fd00::5/128"},
		{"keeps host bits", "10.0.0.5/24", "10.0.0.5/24"},
		{"empty", "", ""},
		{"garbage kept", "not-an-ip", "not-an-ip/32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAllowedIPs(tt.in); got != tt.want {
				t.Errorf("NormalizeAllowedIPs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAllowedIPs_Idempotent(t *testing.T) {
	inputs := []string{
		"10.0.0.5",
		"10.0.0.3/32, fd00::3",
		"0.0.0.0/0, ::/0",
		"garbage, 10.1.0.0/16",
		"FD00::1, 192.168.1.1/24",
		"",
	}
	for _, in := range inputs {
		once := NormalizeAllowedIPs(in)
		if twice := NormalizeAllowedIPs(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIndex_ResolvePriority(t *testing.T) {
	idx := NewIndex()
	idx.Add("alice", "KEY-A", "10.0.0.5/32")
	idx.Add("bob", "KEY-B", "10.0.0.6")

	tests := []struct {
		name       string
		annotation string
		key        string
		ips        string
		position   int
		wantName   string
		wantSource Source
	}{
		{"annotation wins", "carol", "KEY-A", "10.0.0.5/32", 1, "carol", SourceAnnotation},
		{"public key match", "", "KEY-A", "10.0.0.99/32", 1, "alice", SourcePublicKey},
		{"allowed ips match after normalization", "", "KEY-NEW", "10.0.0.6/32", 2, "bob", SourceAllowedIPs},
		{"generated fallback", "", "KEY-NEW", "10.0.0.7/32", 3, "peer3", SourceGenerated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, source := idx.Resolve(tt.annotation, tt.key, tt.ips, tt.position)
			if name != tt.wantName || source != tt.wantSource {
				t.Errorf("Resolve() = (%q, %q), want (%q, %q)", name, source, tt.wantName, tt.wantSource)
			}
		})
	}
}

func TestIndex_NilResolvesToGenerated(t *testing.T) {
	var idx *Index
	if name, source := idx.Resolve("", "K", "10.0.0.2/32", 4); name != "peer4" || source != SourceGenerated {
		t.Errorf("Resolve() = (%q, %q)", name, source)
	}
}

func TestIndex_FirstNameWins(t *testing.T) {
	idx := NewIndex()
	idx.Add("alice", "K", "10.0.0.5/32")
	idx.Add("alice-copy", "K", "10.0.0.5/32")

	if name, _ := idx.ByPublicKey("K"); name != "alice" {
		t.Errorf("ByPublicKey() = %q", name)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d", idx.Len())
	}
}

func TestValidName(t *testing.T) {
	valid := []string{"alice", "peer1", "laptop.home", "a_b-c", "7"}
	invalid := []string{"", "../x", ".hidden", "-dash", "has space", "slash/name"}

	for _, n := range valid {
		if !ValidName(n) {
			t.Errorf("ValidName(%q) = false", n)
		}
	}
	for _, n := range invalid {
		if ValidName(n) {
			t.Errorf("ValidName(%q) = true", n)
		}
	}
}
