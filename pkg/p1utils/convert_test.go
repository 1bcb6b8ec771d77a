package p1utils

import "testing"

func TestPowerConversions(t *testing.T) {
	if got := KwToW(2.35); got != 2350 {
		t.Errorf("KwToW(2.35) = %d, want 2350", got)
	}
	if got := KwToW(-1.5); got != 0 {
		t.Errorf("KwToW(-1.5) = %d, want 0", got)
	}
	if got := WToKw(2350); got != 2.35 {
		t.Errorf("WToKw(2350) = %f, want 2.35", got)
	}
	if got := WhToKwh(123456789); got != 123456.789 {
		t.Errorf("WhToKwh(123456789) = %f, want 123456.789", got)
	}
}

func TestVolumeConversions(t *testing.T) {
	if got := M3ToDM3(12785.123); got != 12785123 {
		t.Errorf("M3ToDM3(12785.123) = %d, want 12785123", got)
	}
	if got := M3ToDM3(-2); got != 0 {
		t.Errorf("M3ToDM3(-2) = %d, want 0", got)
	}
	if got := DM3ToM3(12785123); got != 12785.123 {
		t.Errorf("DM3ToM3(12785123) = %f, want 12785.123", got)
	}
}

func TestDecivoltToV(t *testing.T) {
	if got := DecivoltToV(2301); got != 230.1 {
		t.Errorf("DecivoltToV(2301) = %f, want 230.1", got)
	}
}
