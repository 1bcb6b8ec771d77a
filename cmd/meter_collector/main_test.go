package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rneurink/P1MeterParser/pkg/meterdb"
)

func TestStandingSummaryConvertsToKwh(t *testing.T) {
	s := &meterdb.TariffSnapshot{
		Timestamp:          1700000000,
		DeliveredTariff1Wh: 123456789,
		DeliveredTariff2Wh: 123456,
		ProducedTariff1Wh:  1,
		ProducedTariff2Wh:  0,
	}

	got := standingSummary(s)
	require.Contains(t, got, "delivered 123456.789/123.456 kWh")
	require.Contains(t, got, "produced 0.001/0.000 kWh")
}
