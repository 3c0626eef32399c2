package codegen

import "testing"

func TestNextLengthAndCharset(t *testing.T) {
	gen := NewCryptoNumeric()

	for _, digits := range []int{4, 6, 8} {
		for range 50 {
			code, err := gen.Next(digits)
			if err != nil {
				t.Fatalf("Next(%d): %v", digits, err)
			}
			if len(code) != digits {
				t.Fatalf("Next(%d) returned %q, want length %d", digits, code, digits)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("Next(%d) returned non-digit %q", digits, code)
				}
			}
		}
	}
}

func TestNextRejectsBadLength(t *testing.T) {
	gen := NewCryptoNumeric()

	for _, digits := range []int{0, 3, 11, -1} {
		if _, err := gen.Next(digits); err == nil {
			t.Fatalf("Next(%d) should fail", digits)
		}
	}
}

func TestNextIsNotConstant(t *testing.T) {
	gen := NewCryptoNumeric()

	seen := make(map[string]struct{})
	for range 20 {
		code, err := gen.Next(6)
		if err != nil {
			t.Fatal(err)
		}
		seen[code] = struct{}{}
	}

	// 20 draws from a million values colliding down to one is not credible.
	if len(seen) == 1 {
		t.Fatal("generator returned the same code 20 times")
	}
}
