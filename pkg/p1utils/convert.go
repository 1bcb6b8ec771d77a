package p1utils

import "math"

// Conversions between the integer units of a decoded telegram and the
// floating point units used for display and storage.

// Tariff counters come in 0.001 kWh increments, which is watthours.
func WhToKwh(wh uint32) float64 {
	return float64(wh) / 1000
}

// No negative values
func KwToW(kw float64) uint32 {
	if kw < 0 {
		return 0
	}
	return uint32(math.Round(kw * 1000))
}

func WToKw(w uint32) float64 {
	return float64(w) / 1000
}

// Instantaneous voltage is decoded in 100mV steps.
func DecivoltToV(dv uint32) float64 {
	return float64(dv) / 10
}

// Gas readings are decoded in thousandths of m3, which is dm3 - No negative values
func M3ToDM3(m3 float64) uint32 {
	if m3 < 0 {
		return 0
	}
	return uint32(math.Round(m3 * 1000)) // 1 m³ = 1000 dm³
}

func DM3ToM3(dm3 uint32) float64 {
	return float64(dm3) / 1000
}
