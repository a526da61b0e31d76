package export

import "testing"

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ocean Documentary", "ocean_documentary"},
		{"The History of Coffee!", "the_history_of_coffee_"},
		{"UPPER case 123", "upper_case_123"},
		{"año nuevo", "a_o_nuevo"},
		{"", ""},
		{"---", "___"},
	}

	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("Ocean Documentary", "mp4"); got != "ocean_documentary_completo.mp4" {
		t.Errorf("Filename() = %q", got)
	}
	if got := Filename("Mi Video", "webm"); got != "mi_video_completo.webm" {
		t.Errorf("Filename() = %q", got)
	}
}
