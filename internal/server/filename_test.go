package server

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"My Vacation Video.mov", "My_Vacation_Video.mov"},
		{"Vidéo été.mkv", "Video_ete.mkv"},
		{"../../etc/passwd", "etc_passwd"},
		{`C:\Users\me\clip.avi`, "C_Users_me_clip.avi"},
		{".hidden.webm", "hidden.webm"},
		{"日本語.mp4", "upload.mp4"},
		{"", "upload"},
		{"a<b>c|d.mp4", "abcd.mp4"},
	}
	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
