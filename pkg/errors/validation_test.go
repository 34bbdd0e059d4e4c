package errors

import (
	"testing"
)

func TestValidateSpeciesName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "s1", false},
		{"valid underscore", "Homo_sapiens", false},
		{"valid dotted", "sp.nov.3", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"space", "Homo sapiens", true},
		{"tab", "a\tb", true},
		{"paren", "a(b", true},
		{"comma", "a,b", true},
		{"colon", "a:0.1", true},
		{"semicolon", "a;", true},
		{"brace", "{a", true},
		{"pipe", "a|b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpeciesName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpeciesName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAnalysisID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "0b6a3f0e-8d1c-4b8e-9a53-1f0c2d3e4f5a", false},

		{"empty", "", true},
		{"uppercase", "0B6A3F0E-8D1C-4B8E-9A53-1F0C2D3E4F5A", true},
		{"traversal", "../../etc/passwd", true},
		{"short", "0b6a3f0e", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnalysisID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAnalysisID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "data/example.nwk", false},
		{"valid nested", "runs/2024/partitions.data", false},
		{"valid filename only", "tree.nwk", false},
		{"valid with dots", "v1.2.3/matrix.data", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidNewick,
		ErrCodeInvalidMatrix,
		ErrCodeInvalidPath,
		ErrCodeInvalidStrategy,
		ErrCodeNoRootSpecies,
		ErrCodeSpeciesMismatch,
		ErrCodeBudgetExceeded,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
