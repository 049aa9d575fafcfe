package i18n

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Lang{
		"ru":    LangRu,
		"RU":    LangRu,
		"en":    LangEn,
		"en-US": LangEn,
		"en_GB": LangEn,
		"de":    Fallback,
		"":      Fallback,
	}
	for tag, want := range cases {
		if got := Parse(tag); got != want {
			t.Errorf("Parse(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("en") || !Supported(" RU ") {
		t.Fatal("ru/en must be supported")
	}
	if Supported("fr") {
		t.Fatal("fr is not supported")
	}
}

func TestSupportedRegionTags(t *testing.T) {
	cases := map[string]bool{
		"en-US": true,
		"en_GB": true,
		"ru-RU": true,
		"pt-BR": false,
		"-":     false,
	}
	for tag, want := range cases {
		if got := Supported(tag); got != want {
			t.Errorf("Supported(%q) = %v, want %v", tag, got, want)
		}
	}
	if Parse("en-US") != LangEn {
		t.Fatalf("Parse(en-US) = %q", Parse("en-US"))
	}
}

func TestTablesHaveSameKeys(t *testing.T) {
	for lang, table := range tables {
		for key := range tables[Fallback] {
			if _, ok := table[key]; !ok {
				t.Errorf("%s: missing key %q", lang, key)
			}
		}
	}
}

func TestTranslatorFallback(t *testing.T) {
	en := New("en")
	if got := en.T(KeyShopEmpty); got != "Shop is empty" {
		t.Fatalf("en shopEmpty = %q", got)
	}

	unknown := New("fr")
	if unknown.Lang() != LangRu {
		t.Fatalf("unknown lang resolved to %q", unknown.Lang())
	}
	if got := unknown.T(KeyShopEmpty); got != "Магазин пока пуст" {
		t.Fatalf("fallback shopEmpty = %q", got)
	}

	var zero Translator
	if got := zero.T(KeyBuy); got != "Купить" {
		t.Fatalf("zero translator = %q", got)
	}

	if _, ok := en.Lookup(Key("noSuchKey")); ok {
		t.Fatal("lookup of unknown key succeeded")
	}
	if got := en.T(Key("noSuchKey")); got != "noSuchKey" {
		t.Fatalf("unknown key = %q", got)
	}
}

func TestTf(t *testing.T) {
	if got := New("en").Tf(KeyHabitAdded, "Run"); got != "✅ Habit “Run” added" {
		t.Fatalf("Tf = %q", got)
	}
}
