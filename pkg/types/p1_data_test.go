package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestP1DataFromJsonBytesMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"truncated object", `{"p1_version": 50,`},
		{"not json", "/ISK5\\2M550T-1012"},
		{"wrong field type", `{"p1_version": "fifty"}`},
		{"json array", `[1, 2, 3]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Nil(t, P1DataFromJsonBytes([]byte(tc.payload)))
		})
	}
}

func TestP1DataJsonRoundTrip(t *testing.T) {
	in := &P1Data{
		HeaderInfo:       "ISK5\\2M550T-1012",
		P1Version:        50,
		DateTime:         "220101120000W",
		EquipmentID:      "4B414145303033",
		DeliveredTariff1: 123456789,
		CurrentTariff:    2,
		ActualDelivered:  1234,
		Voltage:          [3]uint32{2301, 2298, 2310},
		PowerFailureLogs: [MaxPowerFailureLogs]PowerFailureLog{
			{DateTime: "000101000001W", Duration: 2147583646},
		},
		MBusDevices: [MaxMBusDevices]MBusDevice{
			{
				DeviceType:  MBusTypeGas,
				EquipmentID: "3232323241424344",
				Reading:     MBusReading{DateTime: "220101120500W", Value: 12785123, Unit: "m3"},
			},
		},
		NumberOfMBusDevices: 1,
		CRC:                 0xBB3D,
		CalculatedCRC:       0xBB3D,
		ValidCRC:            true,
	}

	payload := in.ToJsonBytes()
	require.NotNil(t, payload)

	out := P1DataFromJsonBytes(payload)
	require.NotNil(t, out)
	require.Equal(t, in, out)
}

func TestMBusDeviceTypeString(t *testing.T) {
	require.Equal(t, "Gas", MBusTypeGas.String())
	require.Equal(t, "Thermal", MBusTypeThermal.String())
	require.Equal(t, "Water", MBusTypeWater.String())
	require.Equal(t, "Unknown(7)", MBusDeviceType(7).String())
	require.False(t, MBusDeviceType(7).Known())
}
