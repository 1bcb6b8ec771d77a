package meterdb

import (
	"database/sql"
	"errors"
)

func InsertLivePowerReading(reading *LivePowerReading) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO live_power_readings (timestamp, delivered_w, produced_w, tariff) "+
			"VALUES (?, ?, ?, ?)",
		reading.Timestamp,
		reading.DeliveredW,
		reading.ProducedW,
		reading.Tariff,
	)
	if err != nil {
		return err
	}
	return nil
}

func InsertTariffSnapshot(snapshot *TariffSnapshot) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO tariff_snapshots "+
			"(timestamp, delivered_tariff1_wh, delivered_tariff2_wh, produced_tariff1_wh, produced_tariff2_wh) "+
			"VALUES (?, ?, ?, ?, ?)",
		snapshot.Timestamp,
		snapshot.DeliveredTariff1Wh,
		snapshot.DeliveredTariff2Wh,
		snapshot.ProducedTariff1Wh,
		snapshot.ProducedTariff2Wh,
	)
	if err != nil {
		return err
	}
	return nil
}

func InsertMBusSnapshot(snapshot *MBusSnapshot) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO mbus_snapshots "+
			"(timestamp, device_type, equipment_id, value, unit) "+
			"VALUES (?, ?, ?, ?, ?)",
		snapshot.Timestamp,
		snapshot.DeviceType,
		snapshot.EquipmentID,
		snapshot.Value,
		snapshot.Unit,
	)
	if err != nil {
		return err
	}
	return nil
}

// GetLatestTariffSnapshot returns the most recent counter standing,
// or nil when the database is still empty.
func GetLatestTariffSnapshot() (*TariffSnapshot, error) {
	db := GetDB()

	row := db.QueryRow(
		"SELECT timestamp, delivered_tariff1_wh, delivered_tariff2_wh, produced_tariff1_wh, produced_tariff2_wh " +
			"FROM tariff_snapshots ORDER BY timestamp DESC LIMIT 1")

	var s TariffSnapshot
	err := row.Scan(
		&s.Timestamp,
		&s.DeliveredTariff1Wh,
		&s.DeliveredTariff2Wh,
		&s.ProducedTariff1Wh,
		&s.ProducedTariff2Wh,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
