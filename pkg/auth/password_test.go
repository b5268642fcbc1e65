package auth

import "testing"

func TestValidatePasswordAcceptsStrongPassword(t *testing.T) {
	if err := ValidatePassword("StrongPass1!"); err != nil {
		t.Errorf("expected strong password to pass, got %v", err)
	}
}

func TestValidatePasswordRejectsShort(t *testing.T) {
	if err := ValidatePassword("Sh0rt!"); err == nil {
		t.Error("expected 6-character password to be rejected")
	}
}

func TestValidatePasswordRejectsMissingClasses(t *testing.T) {
	cases := []string{
		"alllowercase1!",
		"ALLUPPERCASE1!",
		"NoDigitsHere!!",
		"NoSpecialChars1",
	}
	for _, c := range cases {
		if err := ValidatePassword(c); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", c)
		}
	}
}

func TestValidatePasswordRejectsRepeatedChars(t *testing.T) {
	if err := ValidatePassword("Stronggg1!"); err == nil {
		t.Error("expected triple-repeated character to be rejected")
	}
}

func TestValidatePasswordRejectsAscendingSequence(t *testing.T) {
	if err := ValidatePassword("Myabc123Pass!"); err == nil {
		t.Error("expected ascending sequential run to be rejected")
	}
}

func TestValidatePasswordAllowsDescendingSequence(t *testing.T) {
	if err := ValidatePassword("Mycba987Pass!"); err != nil {
		t.Errorf("descending sequence should be allowed, got %v", err)
	}
}

func TestValidatePasswordRejectsCommonPassword(t *testing.T) {
	if err := ValidatePassword("password"); err == nil {
		t.Error("expected common password to be rejected")
	}
}

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("StrongPass1!", 4)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "StrongPass1!" {
		t.Error("hash must not equal plaintext")
	}
	if !VerifyPassword(hash, "StrongPass1!") {
		t.Error("VerifyPassword() should accept the correct password")
	}
	if VerifyPassword(hash, "WrongPass1!") {
		t.Error("VerifyPassword() should reject an incorrect password")
	}
}
