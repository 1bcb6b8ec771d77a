package types

import (
	"encoding/json"
	"fmt"
)

// Sized according to DSMR 5.0.2. A telegram carries at most a handful of
// attached M-Bus meters and long power failure log entries.
const (
	MaxMBusDevices      = 3
	MaxPowerFailureLogs = 3
)

// MBusDeviceType is the device type code reported on the 24.1.0 channel.
// Codes outside the known set are kept as-is so they survive a round trip.
type MBusDeviceType uint8

const (
	MBusTypeGas     MBusDeviceType = 3
	MBusTypeThermal MBusDeviceType = 4   // Heat or cold, i.e. city heating
	MBusTypeWater   MBusDeviceType = 255 // Vendor specific
)

func (t MBusDeviceType) Known() bool {
	switch t {
	case MBusTypeGas, MBusTypeThermal, MBusTypeWater:
		return true
	}
	return false
}

func (t MBusDeviceType) String() string {
	switch t {
	case MBusTypeGas:
		return "Gas"
	case MBusTypeThermal:
		return "Thermal"
	case MBusTypeWater:
		return "Water"
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// PowerFailureLog is one entry of the long power failure event log.
type PowerFailureLog struct {
	DateTime string  `json:"datetime"` // YYMMDDhhmmssX end of failure
	Duration float64 `json:"duration_s"`
}

// MBusReading is the last 5-minute value of an attached M-Bus meter.
type MBusReading struct {
	DateTime string `json:"datetime"`
	Value    uint32 `json:"value"` // In thousandths of the unit
	Unit     string `json:"unit"`
}

// MBusDevice is one meter attached to the master over the M-Bus channels.
type MBusDevice struct {
	DeviceType  MBusDeviceType `json:"device_type"`
	EquipmentID string         `json:"equipment_id"`
	Reading     MBusReading    `json:"reading"`
}

// P1Data is one fully decoded P1 telegram.
// Field layout follows the Dutch Smart Meter Requirements (DSMR) 5.0.2.
type P1Data struct {
	HeaderInfo string `json:"header_info"`
	P1Version  uint8  `json:"p1_version"`
	DateTime   string `json:"datetime"` // YYMMDDhhmmssX, X is S (summer) or W (winter)

	EquipmentID string `json:"equipment_id"`

	// Cumulative tariff counters in 0.001 kWh increments
	DeliveredTariff1 uint32 `json:"delivered_tariff1_wh"`
	DeliveredTariff2 uint32 `json:"delivered_tariff2_wh"`
	ProducedTariff1  uint32 `json:"produced_tariff1_wh"`
	ProducedTariff2  uint32 `json:"produced_tariff2_wh"`
	CurrentTariff    uint8  `json:"current_tariff"` // 1 low, 2 high

	ActualDelivered uint32 `json:"actual_delivered_w"`
	ActualProduced  uint32 `json:"actual_produced_w"`

	PowerFailures     uint32                               `json:"power_failures"`
	LongPowerFailures uint32                               `json:"long_power_failures"`
	PowerFailureLogs  [MaxPowerFailureLogs]PowerFailureLog `json:"power_failure_logs"`

	// Per phase L1 L2 L3
	VoltageSags   [3]uint32 `json:"voltage_sags"`
	VoltageSwells [3]uint32 `json:"voltage_swells"`

	TextMessage string `json:"text_message"`

	// Per phase L1 L2 L3
	Voltage        [3]uint32 `json:"voltage_100mv"` // In 100mV
	Current        [3]uint32 `json:"current_a"`
	PowerDelivered [3]uint32 `json:"power_delivered_w"` // +P
	PowerProduced  [3]uint32 `json:"power_produced_w"`  // -P

	MBusDevices         [MaxMBusDevices]MBusDevice `json:"mbus_devices"`
	NumberOfMBusDevices uint8                      `json:"number_of_mbus_devices"`

	CRC           uint16 `json:"crc"`            // As transmitted by the meter
	CalculatedCRC uint16 `json:"calculated_crc"` // Over '/' through '!'
	ValidCRC      bool   `json:"valid_crc"`
}

func (d *P1Data) ToJsonBytes() []byte {
	data, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return data
}

// Returns nil if the payload does not unmarshal into a P1Data.
func P1DataFromJsonBytes(data []byte) *P1Data {
	var d P1Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil
	}
	return &d
}
