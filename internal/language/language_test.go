package language

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"EN":    "en",
		" fr ":  "fr",
		"en-US": "en",
		"auto":  "auto",
		"":      "",
		"zz":    "zz",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNLLBCode(t *testing.T) {
	if got := NLLBCode("en"); got != "eng_Latn" {
		t.Errorf("NLLBCode(en) = %q", got)
	}
	if got := NLLBCode("RU"); got != "rus_Cyrl" {
		t.Errorf("NLLBCode(RU) = %q", got)
	}
	// Unknown languages get a Latin-script guess.
	if got := NLLBCode("xx"); got != "xx_Latn" {
		t.Errorf("NLLBCode(xx) = %q", got)
	}
	// Undetected languages must not turn into a bare script suffix.
	if got := NLLBCode(""); got != "" {
		t.Errorf("NLLBCode(\"\") = %q, want empty", got)
	}
	if got := NLLBCode("auto"); got != "" {
		t.Errorf("NLLBCode(auto) = %q, want empty", got)
	}
}

func TestXTTSCode(t *testing.T) {
	code, ok := XTTSCode("zh")
	if !ok || code != "zh-cn" {
		t.Errorf("XTTSCode(zh) = %q, %v", code, ok)
	}
	if _, ok := XTTSCode("sw"); ok {
		t.Error("expected Swahili to be unsupported by XTTS")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("de"); got != "German" {
		t.Errorf("DisplayName(de) = %q", got)
	}
	if got := DisplayName("xx"); got != "Xx" {
		t.Errorf("DisplayName(xx) = %q", got)
	}
}

func TestSupported(t *testing.T) {
	if !Supported("ja") {
		t.Error("expected ja supported")
	}
	if Supported("tlh") {
		t.Error("expected tlh unsupported")
	}
}
