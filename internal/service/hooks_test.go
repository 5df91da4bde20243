package service

import "testing"

func TestRenderHook(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"empty", "", ""},
		{
			"placeholders",
			"iptables -A FORWARD -i {{interface}} -s {{subnet}} -j ACCEPT # {{listen_port}}",
			"iptables -A FORWARD -i wg0 -s 10.0.0.0/24 -j ACCEPT # 51820",
		},
		{"address list", "ip addr {{address}}", "ip addr 10.0.0.1/24, fd00::1/64"},
		{"unknown placeholder kept", "echo {{unknown}} {{interface}}", "echo {{unknown}} wg0"},
		{"unterminated", "echo {{interface", "echo {{interface"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderHook(tt.tmpl, "wg0", "10.0.0.1/24, fd00::1/64", 51820); got != tt.want {
				t.Errorf("renderHook() = %q, want %q", got, tt.want)
			}
		})
	}
}
