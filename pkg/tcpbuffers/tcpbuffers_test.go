package tcpbuffers

import "testing"

func TestLookupDefault(t *testing.T) {
	got := Lookup("LTE", false, false, nil)
	if got != defaults["LTE"] {
		t.Errorf("Lookup(LTE) = %q, want %q", got, defaults["LTE"])
	}
}

func TestLookupEvdoAlias(t *testing.T) {
	got := Lookup("EVDO_A", false, false, nil)
	if got != defaults["evdo"] {
		t.Errorf("Lookup(EVDO_A) = %q, want evdo table", got)
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	if got := Lookup("CDMA1X", false, false, nil); got != fallback {
		t.Errorf("Lookup(unknown) = %q, want fallback %q", got, fallback)
	}
}

func TestLookupNRNSAOverride(t *testing.T) {
	got := Lookup("LTE", true, false, nil)
	if got != defaults["NR"] {
		t.Errorf("LTE with NR connected should use NR values, got %q", got)
	}
	got = Lookup("LTE-CA", true, false, nil)
	if got != defaults["NR"] {
		t.Errorf("LTE-CA with NR connected should use NR values, got %q", got)
	}
	got = Lookup("LTE-CA", false, false, nil)
	if got != defaults["LTE"] {
		t.Errorf("LTE-CA with no carrier aggregation and no NR should fall back to LTE, got %q", got)
	}
}

func TestCarrierConfigOverrideWins(t *testing.T) {
	overrides := ParseOverrides([]string{"LTE:1,2,3,4,5,6"})
	got := Lookup("LTE", false, false, overrides)
	if got != "1,2,3,4,5,6" {
		t.Errorf("Lookup with override = %q, want override value", got)
	}
}

func TestParseOverrideRejectsMalformed(t *testing.T) {
	if _, _, err := ParseOverride("LTE-missing-colon"); err == nil {
		t.Error("expected an error for an entry with no ':'")
	}
	if _, _, err := ParseOverride("LTE:1,2,3"); err == nil {
		t.Error("expected an error for an entry with too few values")
	}
	if _, _, err := ParseOverride("LTE:a,b,c,d,e,f"); err == nil {
		t.Error("expected an error for non-numeric values")
	}
}
