package utils

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "on", "enabled", " Yes "} {
		if !ParseBool(s) {
			t.Errorf("ParseBool(%q) should be true", s)
		}
	}
	for _, s := range []string{"false", "0", "no", "off", "", "maybe"} {
		if ParseBool(s) {
			t.Errorf("ParseBool(%q) should be false", s)
		}
	}
}

func TestTrimQuotes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`hello`, "hello"},
		{`"unbalanced`, `"unbalanced`},
		{`""`, ""},
		{` "padded" `, "padded"},
	}
	for _, tc := range cases {
		if got := TrimQuotes(tc.in); got != tc.want {
			t.Errorf("TrimQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitKeyValue(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{`KEY=value`, "KEY", "value", true},
		{`KEY="quoted value"`, "KEY", "quoted value", true},
		{`KEY="value" # comment`, "KEY", "value", true},
		{`KEY=value # comment`, "KEY", "value", true},
		{`KEY="val # not comment"`, "KEY", "val # not comment", true},
		{`KEY=`, "KEY", "", true},
		{`no equals sign`, "", "", false},
	}
	for _, tc := range cases {
		key, value, ok := SplitKeyValue(tc.line)
		if key != tc.key || value != tc.value || ok != tc.ok {
			t.Errorf("SplitKeyValue(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, key, value, ok, tc.key, tc.value, tc.ok)
		}
	}
}

func TestSetEnvValueReplacesExisting(t *testing.T) {
	template := "# storage\nRCLONE_REMOTE=\"old\"\nMOUNT_POINT=\"/mnt\"\n"
	out := SetEnvValue(template, "RCLONE_REMOTE", "gdrive")

	if !strings.Contains(out, `RCLONE_REMOTE="gdrive"`) {
		t.Errorf("value not replaced:\n%s", out)
	}
	if strings.Contains(out, `"old"`) {
		t.Errorf("old value still present:\n%s", out)
	}
	if !strings.Contains(out, "# storage") {
		t.Errorf("comment lines must be preserved:\n%s", out)
	}
	if !strings.Contains(out, `MOUNT_POINT="/mnt"`) {
		t.Errorf("unrelated keys must be preserved:\n%s", out)
	}
}

func TestSetEnvValueUncommentsKey(t *testing.T) {
	template := "#WEBHOOK_URL=\"\"\n"
	out := SetEnvValue(template, "WEBHOOK_URL", "https://example.com/hook")
	if !strings.Contains(out, `WEBHOOK_URL="https://example.com/hook"`) {
		t.Errorf("commented key not activated:\n%s", out)
	}
}

func TestSetEnvValueAppendsMissing(t *testing.T) {
	out := SetEnvValue("EXISTING=\"1\"\n", "NEW_KEY", "abc")
	if !strings.Contains(out, `NEW_KEY="abc"`) {
		t.Errorf("missing key not appended:\n%s", out)
	}
}
