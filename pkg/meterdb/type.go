package meterdb

// Live instantaneous power, one row per telegram
type LivePowerReading struct {
	Timestamp  int64  `db:"timestamp"`
	DeliveredW uint32 `db:"delivered_w"`
	ProducedW  uint32 `db:"produced_w"`
	Tariff     uint8  `db:"tariff"`
}

// Standing of the four cumulative tariff counters
type TariffSnapshot struct {
	Timestamp          int64  `db:"timestamp"`
	DeliveredTariff1Wh uint32 `db:"delivered_tariff1_wh"`
	DeliveredTariff2Wh uint32 `db:"delivered_tariff2_wh"`
	ProducedTariff1Wh  uint32 `db:"produced_tariff1_wh"`
	ProducedTariff2Wh  uint32 `db:"produced_tariff2_wh"`
}

// Standing of an attached M-Bus meter (gas, water, thermal)
type MBusSnapshot struct {
	Timestamp   int64  `db:"timestamp"`
	DeviceType  uint8  `db:"device_type"`
	EquipmentID string `db:"equipment_id"`
	Value       uint32 `db:"value"` // In thousandths of the unit
	Unit        string `db:"unit"`
}
