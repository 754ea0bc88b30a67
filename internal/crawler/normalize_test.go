package crawler

import (
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases scheme and host",
			input: "HTTP://Example.COM/KeepCase",
			want:  "http://example.com/KeepCase",
		},
		{
			name:  "sorts query parameters",
			input: "http://example.com/path?b=2&a=1",
			want:  "http://example.com/path?a=1&b=2",
		},
		{
			name:  "keeps value order within duplicate keys",
			input: "http://example.com/?b=2&a=1&b=1",
			want:  "http://example.com/?a=1&b=2&b=1",
		},
		{
			name:  "drops parameters with empty values",
			input: "http://example.com/?a=&b=2",
			want:  "http://example.com/?b=2",
		},
		{
			name:  "drops empty values per key",
			input: "http://example.com/?a=1&a=",
			want:  "http://example.com/?a=1",
		},
		{
			name:  "drops query when all values empty",
			input: "http://example.com/?a=&b=",
			want:  "http://example.com/",
		},
		{
			name:  "strips fragment",
			input: "http://example.com/page#section",
			want:  "http://example.com/page",
		},
		{
			name:  "adds slash for empty path",
			input: "http://example.com",
			want:  "http://example.com/",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  http://example.com/  ",
			want:  "http://example.com/",
		},
		{
			name:  "keeps https scheme",
			input: "https://example.com/secure",
			want:  "https://example.com/secure",
		},
		{
			name:  "keeps port",
			input: "http://example.com:8080/",
			want:  "http://example.com:8080/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTP://Example.COM/path?b=2&a=1#frag",
		"http://example.com",
		"https://example.com/a?x=&y=1",
	}
	for _, input := range inputs {
		once, err := Normalize(input)
		if err != nil {
			t.Fatalf("normalize %q: %v", input, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("normalize %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("normalization of %q is not idempotent: %q then %q", input, once, twice)
		}
	}
}

func TestNormalizeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "missing scheme", input: "example.com/path"},
		{name: "unsupported scheme", input: "ftp://example.com/"},
		{name: "scheme without host", input: "http://"},
		{name: "relative path", input: "/just/a/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Normalize(tt.input); err == nil {
				t.Errorf("expected error for %q, got none", tt.input)
			}
		})
	}
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "host only", input: "http://example.com/path?q=1", want: "http://example.com"},
		{name: "host with port", input: "https://example.com:8443/x", want: "https://example.com:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.input, err)
			}
			if got := Origin(u); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "identical hosts", a: "http://example.com/a", b: "http://example.com/b", want: true},
		{name: "case insensitive", a: "http://EXAMPLE.com/", b: "http://example.COM/", want: true},
		{name: "different hosts", a: "http://example.com/", b: "http://other.org/", want: false},
		{name: "different ports", a: "http://example.com:8080/", b: "http://example.com/", want: false},
		{name: "subdomain is a different host", a: "http://www.example.com/", b: "http://example.com/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := url.Parse(tt.a)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.a, err)
			}
			b, err := url.Parse(tt.b)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.b, err)
			}
			if got := SameHost(a, b); got != tt.want {
				t.Errorf("SameHost(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
