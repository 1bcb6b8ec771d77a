// Responsible for storing the telegrams decoded by the meter API.
// Depends on the meter API being online.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/rneurink/P1MeterParser/pkg/config"
	"github.com/rneurink/P1MeterParser/pkg/listener"
	"github.com/rneurink/P1MeterParser/pkg/meterdb"
	"github.com/rneurink/P1MeterParser/pkg/p1utils"
	"github.com/rneurink/P1MeterParser/pkg/types"
)

// Counter standings barely move between telegrams, snapshot once a minute
const snapshotInterval = time.Minute

var lastSnapshot time.Time

func main() {
	// Load config
	if err := config.LoadMeterCollectorConfig(); err != nil {
		log.Fatalf("Failed to load meter collector config: %v", err)
	}

	// Initialize database
	meterdb.InitializeDatabase()

	// Log the last stored counter standing so a restart is visible in the journal
	last, err := meterdb.GetLatestTariffSnapshot()
	if err != nil {
		log.Printf("Failed to read last tariff snapshot: %v", err)
	} else if last == nil {
		log.Println("No tariff snapshots stored yet")
	} else {
		log.Printf("Resuming from %s", standingSummary(last))
	}

	// Subscribe to the telegram stream, reconnects with backoff
	listener.StartListener(
		config.ActiveMeterCollectorConfig.MeterAPIHost,
		config.ActiveMeterCollectorConfig.TLSEnabled,
		handleTelegram,
	)
}

// standingSummary renders a counter standing in the kWh the meter display shows.
func standingSummary(s *meterdb.TariffSnapshot) string {
	return fmt.Sprintf("standing of %s: delivered %.3f/%.3f kWh, produced %.3f/%.3f kWh (tariff 1/2)",
		time.Unix(s.Timestamp, 0).Format(time.RFC3339),
		p1utils.WhToKwh(s.DeliveredTariff1Wh),
		p1utils.WhToKwh(s.DeliveredTariff2Wh),
		p1utils.WhToKwh(s.ProducedTariff1Wh),
		p1utils.WhToKwh(s.ProducedTariff2Wh),
	)
}

func handleTelegram(data *types.P1Data) {
	now := time.Now()

	err := meterdb.InsertLivePowerReading(&meterdb.LivePowerReading{
		Timestamp:  now.Unix(),
		DeliveredW: data.ActualDelivered,
		ProducedW:  data.ActualProduced,
		Tariff:     data.CurrentTariff,
	})
	if err != nil {
		log.Printf("Failed to store live power reading: %v", err)
	}

	if now.Sub(lastSnapshot) < snapshotInterval {
		return
	}
	lastSnapshot = now

	err = meterdb.InsertTariffSnapshot(&meterdb.TariffSnapshot{
		Timestamp:          now.Unix(),
		DeliveredTariff1Wh: data.DeliveredTariff1,
		DeliveredTariff2Wh: data.DeliveredTariff2,
		ProducedTariff1Wh:  data.ProducedTariff1,
		ProducedTariff2Wh:  data.ProducedTariff2,
	})
	if err != nil {
		log.Printf("Failed to store tariff snapshot: %v", err)
	}

	for i := uint8(0); i < data.NumberOfMBusDevices && i < types.MaxMBusDevices; i++ {
		dev := data.MBusDevices[i]
		if dev.EquipmentID == "" && dev.Reading.DateTime == "" {
			continue
		}
		err = meterdb.InsertMBusSnapshot(&meterdb.MBusSnapshot{
			Timestamp:   now.Unix(),
			DeviceType:  uint8(dev.DeviceType),
			EquipmentID: dev.EquipmentID,
			Value:       dev.Reading.Value,
			Unit:        dev.Reading.Unit,
		})
		if err != nil {
			log.Printf("Failed to store M-Bus snapshot: %v", err)
		}
	}
}
