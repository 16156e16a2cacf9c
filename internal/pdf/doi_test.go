package pdf

import "testing"

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain doi",
			text: "IEEE Trans. Nanobiosci. doi 10.1109/TNB.2016.1234567 June 2016",
			want: "10.1109/TNB.2016.1234567",
		},
		{
			name: "doi with trailing punctuation",
			text: "See https://doi.org/10.1234/abcd.5678.",
			want: "10.1234/abcd.5678",
		},
		{
			name: "no doi",
			text: "A page of prose without identifiers.",
			want: "",
		},
		{
			name: "rejects short candidates",
			text: "version 10.2/x of the manual",
			want: "",
		},
		{
			name: "first of several",
			text: "10.1109/FIRST.1 then 10.1109/SECOND.2",
			want: "10.1109/FIRST.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDOI(tt.text); got != tt.want {
				t.Errorf("findDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsValidDOI(t *testing.T) {
	tests := []struct {
		doi  string
		want bool
	}{
		{"10.1109/TNB.2016.1234567", true},
		{"10.12345/x", true},
		{"10.12/abc", false}, // too short
		{"11.1234/abc", false},
		{"10.1234567", false}, // no suffix
	}

	for _, tt := range tests {
		t.Run(tt.doi, func(t *testing.T) {
			if got := isValidDOI(tt.doi); got != tt.want {
				t.Errorf("isValidDOI(%q) = %v, want %v", tt.doi, got, tt.want)
			}
		})
	}
}

func TestExtractDOI_MissingFile(t *testing.T) {
	if _, err := ExtractDOI("does-not-exist.pdf"); err == nil {
		t.Error("ExtractDOI() should fail for a missing file")
	}
}
