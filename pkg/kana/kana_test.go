package kana

import "testing"

func TestToHiragana(t *testing.T) {
	cases := map[string]string{
		"ohayou":     "おはよう",
		"OHAYOU":     "おはよう",
		"konnichiha": "こんにちは",
		"kyou":       "きょう",
		"kitte":      "きって",
		"matcha":     "まっちゃ",
		"shinbun":    "しんぶん",
		"honn":       "ほん",
		"kan'i":      "かんい",
		"nihon go":   "にほん ご",
		"arigatou":   "ありがとう",
		"tsukue":     "つくえ",
		"jisho":      "じしょ",
		"fuji":       "ふじ",
		"wo":         "を",
		"":           "",
	}
	for in, want := range cases {
		if got := ToHiragana(in); got != want {
			t.Errorf("ToHiragana(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToHiraganaPassesThroughUnknown(t *testing.T) {
	if got := ToHiragana("x1"); got != "x1" {
		t.Fatalf("expected unconvertible input to pass through, got %q", got)
	}
	if got := ToHiragana("ka漢"); got != "か漢" {
		t.Fatalf("expected non-ASCII to pass through, got %q", got)
	}
}

func TestToKatakana(t *testing.T) {
	cases := map[string]string{
		"ko-hi-": "コーヒー",
		"tesuto": "テスト",
		"vu":     "ヴ",
	}
	for in, want := range cases {
		if got := ToKatakana(in); got != want {
			t.Errorf("ToKatakana(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScriptConversionRoundTrip(t *testing.T) {
	const hira = "ぁあゔゕゖ"
	if got := KatakanaToHiragana(HiraganaToKatakana(hira)); got != hira {
		t.Fatalf("round trip = %q", got)
	}
}

func TestToRomaji(t *testing.T) {
	cases := map[string]string{
		"キョウ":   "kyou",
		"きょう":   "kyou",
		"こんにちは": "konnichiha",
		"きって":   "kitte",
		"まっちゃ":  "maccha",
		"ラーメン":  "raamen",
		"ほんや":   "honnya",
		"げんいん":  "gennin",
		"しんぶん":  "shinbun",
		"テスト":   "tesuto",
		"あっ":    "atsu",
		"猫":     "猫",
	}
	for in, want := range cases {
		if got := ToRomaji(in); got != want {
			t.Errorf("ToRomaji(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsKana(t *testing.T) {
	if !IsKana("ひらがなカタカナー") {
		t.Fatal("expected kana")
	}
	for _, s := range []string{"", "猫", "kana", "か な"} {
		if IsKana(s) {
			t.Errorf("IsKana(%q) = true", s)
		}
	}
}

func TestConverterScript(t *testing.T) {
	if got := NewConverter(Katakana).ToPhonetic("neko"); got != "ネコ" {
		t.Fatalf("katakana converter = %q", got)
	}
	if got := NewConverter("unknown").ToPhonetic("neko"); got != "ねこ" {
		t.Fatalf("fallback converter = %q", got)
	}
}
