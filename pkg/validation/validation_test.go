package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b@mail.co", "x@sub.domain.org"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}
	invalid := []string{"", "plain", "@example.com", "user@", "user@nodot", "a b@example.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestUsernameFromEmail(t *testing.T) {
	if got := UsernameFromEmail("Jane.Doe@example.com"); got != "jane.doe" {
		t.Errorf("got %q, want jane.doe", got)
	}
}

func TestValidateTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:00", "09:00", false},
		{"9:5", "09:05", false},
		{"23:59", "23:59", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ValidateTimeOfDay(c.in)
		if c.wantErr != (err != nil) {
			t.Errorf("ValidateTimeOfDay(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("ValidateTimeOfDay(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
