package domain

import (
	"strings"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "bare domain gains scheme and trailing slash",
			input: "example.com",
			want:  "https://example.com/",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  example.com  ",
			want:  "https://example.com/",
		},
		{
			name:  "http scheme is preserved",
			input: "http://example.com/path",
			want:  "http://example.com/path",
		},
		{
			name:  "uppercase scheme is accepted",
			input: "HTTPS://example.com",
			want:  "https://example.com/",
		},
		{
			name:  "query and fragment survive",
			input: "example.com/a?b=1#c",
			want:  "https://example.com/a?b=1#c",
		},
		{
			name:    "javascript scheme is rejected",
			input:   "javascript:alert(1)",
			wantErr: "Only http and https URLs are allowed",
		},
		{
			name:    "ftp scheme is rejected",
			input:   "ftp://example.com",
			wantErr: "Only http and https URLs are allowed",
		},
		{
			name:    "empty input is rejected",
			input:   "   ",
			wantErr: "URL is required",
		},
		{
			name:    "garbage is rejected",
			input:   "not a url",
			wantErr: "Enter a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("NormalizeURL(%q) = %q, want error %q", tt.input, got, tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("NormalizeURL(%q) error = %q, want %q", tt.input, err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"example.com",
		"http://example.com/path?x=1",
		"https://sub.example.com/deep/path",
	}

	for _, input := range inputs {
		once, err := NormalizeURL(input)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) unexpected error: %v", input, err)
		}
		twice, err := NormalizeURL(once)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) unexpected error: %v", once, err)
		}
		if once != twice {
			t.Errorf("NormalizeURL not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		url       string
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid pair",
			title: "Example",
			url:   "example.com",
		},
		{
			name:      "empty title",
			title:     "   ",
			url:       "https://a.com",
			wantField: "title",
			wantMsg:   "Title is required",
		},
		{
			name:      "title too long",
			title:     strings.Repeat("x", 121),
			url:       "https://a.com",
			wantField: "title",
			wantMsg:   "Title is too long",
		},
		{
			name:      "invalid url",
			title:     "t",
			url:       "not a url",
			wantField: "url",
			wantMsg:   "Enter a valid URL",
		},
		{
			name:      "empty url",
			title:     "t",
			url:       "",
			wantField: "url",
			wantMsg:   "URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, fieldErrs := Validate(tt.title, tt.url)
			if tt.wantField == "" {
				if fieldErrs != nil {
					t.Fatalf("Validate(%q, %q) unexpected errors: %v", tt.title, tt.url, fieldErrs)
				}
				if input.Title == "" || input.URL == "" {
					t.Errorf("Validate(%q, %q) returned empty input: %+v", tt.title, tt.url, input)
				}
				return
			}
			if fieldErrs == nil {
				t.Fatalf("Validate(%q, %q) = %+v, want %s error", tt.title, tt.url, input, tt.wantField)
			}
			if got := fieldErrs[tt.wantField]; got != tt.wantMsg {
				t.Errorf("Validate(%q, %q) %s error = %q, want %q", tt.title, tt.url, tt.wantField, got, tt.wantMsg)
			}
		})
	}
}

func TestValidateTitleMaxLength(t *testing.T) {
	title := strings.Repeat("x", 120)
	input, fieldErrs := Validate(title, "example.com")
	if fieldErrs != nil {
		t.Fatalf("120-char title should be valid, got: %v", fieldErrs)
	}
	if input.Title != title {
		t.Errorf("title was altered: got %d chars, want 120", len(input.Title))
	}
}
