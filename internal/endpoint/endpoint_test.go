package endpoint

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Endpoint
	}{
		{
			name:  "insecure with port and path",
			input: "ws://device.example:9000/control",
			want:  Endpoint{Secure: false, Host: "device.example", Port: 9000, Path: "/control"},
		},
		{
			name:  "secure with defaults",
			input: "wss://svc.example",
			want:  Endpoint{Secure: true, Host: "svc.example", Port: 443, Path: "/"},
		},
		{
			name:  "insecure default port",
			input: "ws://svc.example/ws",
			want:  Endpoint{Secure: false, Host: "svc.example", Port: 80, Path: "/ws"},
		},
		{
			name:  "secure with explicit port",
			input: "wss://svc.example:8443/ws/device",
			want:  Endpoint{Secure: true, Host: "svc.example", Port: 8443, Path: "/ws/device"},
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  ws://svc.example/  ",
			want:  Endpoint{Secure: false, Host: "svc.example", Port: 80, Path: "/"},
		},
		{
			name:  "ipv4 host",
			input: "ws://192.168.1.50:8080/socket",
			want:  Endpoint{Secure: false, Host: "192.168.1.50", Port: 8080, Path: "/socket"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing scheme", "device.example:9000/control"},
		{"http scheme", "http://device.example/"},
		{"empty string", ""},
		{"empty host", "ws://:9000/control"},
		{"empty host no port", "ws:///control"},
		{"port zero", "ws://device.example:0/"},
		{"port too large", "ws://device.example:70000/"},
		{"port not numeric", "ws://device.example:abc/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got nil", tt.input)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	const input = "wss://svc.example:8443/ws"
	first, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	for i := 0; i < 10; i++ {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v on iteration %d", input, err, i)
		}
		if got != first {
			t.Fatalf("Parse(%q) = %+v on iteration %d, want %+v", input, got, i, first)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"ws://device.example:9000/control",
		"wss://svc.example",
		"ws://svc.example/ws",
		"wss://svc.example:8443/ws/device",
		"ws://svc.example:80/",
		"wss://svc.example:443/",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ep, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", input, err)
			}
			again, err := Parse(ep.String())
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", ep.String(), err)
			}
			if again != ep {
				t.Errorf("round trip changed endpoint: %+v -> %q -> %+v", ep, ep.String(), again)
			}
		})
	}
}

func TestStringOmitsDefaultPort(t *testing.T) {
	ep := Endpoint{Secure: true, Host: "svc.example", Port: 443, Path: "/"}
	if got, want := ep.String(), "wss://svc.example/"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	ep = Endpoint{Secure: false, Host: "svc.example", Port: 9000, Path: "/control"}
	if got, want := ep.String(), "ws://svc.example:9000/control"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
