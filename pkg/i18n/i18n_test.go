package i18n

import (
	"reflect"
	"testing"
)

func TestEveryMessageTranslated(t *testing.T) {
	en := reflect.ValueOf(messagesEN)
	zh := reflect.ValueOf(messagesZH)
	for i := 0; i < en.NumField(); i++ {
		name := en.Type().Field(i).Name
		if en.Field(i).String() == "" {
			t.Errorf("%s missing english text", name)
		}
		if zh.Field(i).String() == "" {
			t.Errorf("%s missing chinese text", name)
		}
	}
}

func TestGetFollowsLanguage(t *testing.T) {
	defer SetLanguage(LangEN)

	if Get("RiskClosed") != messagesEN.RiskClosed {
		t.Fatalf("unexpected english text %q", Get("RiskClosed"))
	}
	SetLanguage(LangZH)
	if GetLanguage() != LangZH || Get("RiskClosed") != messagesZH.RiskClosed {
		t.Fatalf("language switch not applied")
	}
	if Get("NoSuchKey") != "NoSuchKey" {
		t.Fatalf("unknown keys should echo back")
	}
}
