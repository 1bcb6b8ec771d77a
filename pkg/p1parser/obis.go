package p1parser

// OBIS codes for the master device, DSMR 5.0.2.
const (
	ObisVersion          = "1-3:0.2.8"   // Version information for P1 output
	ObisDateTime         = "0-0:1.0.0"   // Date-time stamp of the P1 message
	ObisEquipmentID      = "0-0:96.1.1"  // Equipment identifier
	ObisTariff1Delivered = "1-0:1.8.1"   // Electricity delivered to client (tariff 1) in 0,001 kWh
	ObisTariff2Delivered = "1-0:1.8.2"   // Electricity delivered to client (tariff 2) in 0,001 kWh
	ObisTariff1Produced  = "1-0:2.8.1"   // Electricity delivered by client (tariff 1) in 0,001 kWh
	ObisTariff2Produced  = "1-0:2.8.2"   // Electricity delivered by client (tariff 2) in 0,001 kWh
	ObisTariffIndicator  = "0-0:96.14.0" // Tariff indicator electricity
	ObisActualDelivered  = "1-0:1.7.0"   // Actual power delivered (+P) in 1 Watt resolution
	ObisActualProduced   = "1-0:2.7.0"   // Actual power received (-P) in 1 Watt resolution
	ObisNumberPowerFail  = "0-0:96.7.21" // Number of power failures in any phase
	ObisLongPowerFail    = "0-0:96.7.9"  // Number of long power failures in any phase
	ObisPowerLog         = "1-0:99.97.0" // Power failure event log (long power failures)
	ObisPowerLogItem     = "0-0:96.7.19" // Power failure event log item id
	ObisNumVoltageSagL1  = "1-0:32.32.0" // Number of voltage sags in phase L1
	ObisNumVoltageSagL2  = "1-0:52.32.0" // Number of voltage sags in phase L2
	ObisNumVoltageSagL3  = "1-0:72.32.0" // Number of voltage sags in phase L3
	ObisNumVoltageSwlL1  = "1-0:32.36.0" // Number of voltage swells in phase L1
	ObisNumVoltageSwlL2  = "1-0:52.36.0" // Number of voltage swells in phase L2
	ObisNumVoltageSwlL3  = "1-0:72.36.0" // Number of voltage swells in phase L3
	ObisTextMessage      = "0-0:96.13.0" // Text message, max 1024 characters
	ObisVoltageL1        = "1-0:32.7.0"  // Instantaneous voltage L1 in V resolution
	ObisVoltageL2        = "1-0:52.7.0"  // Instantaneous voltage L2 in V resolution
	ObisVoltageL3        = "1-0:72.7.0"  // Instantaneous voltage L3 in V resolution
	ObisCurrentL1        = "1-0:31.7.0"  // Instantaneous current L1 in A resolution
	ObisCurrentL2        = "1-0:51.7.0"  // Instantaneous current L2 in A resolution
	ObisCurrentL3        = "1-0:71.7.0"  // Instantaneous current L3 in A resolution
	ObisPowerPosL1       = "1-0:21.7.0"  // Instantaneous active power L1 (+P) in W resolution
	ObisPowerPosL2       = "1-0:41.7.0"  // Instantaneous active power L2 (+P) in W resolution
	ObisPowerPosL3       = "1-0:61.7.0"  // Instantaneous active power L3 (+P) in W resolution
	ObisPowerNegL1       = "1-0:22.7.0"  // Instantaneous active power L1 (-P) in W resolution
	ObisPowerNegL2       = "1-0:42.7.0"  // Instantaneous active power L2 (-P) in W resolution
	ObisPowerNegL3       = "1-0:62.7.0"  // Instantaneous active power L3 (-P) in W resolution
)

// OBIS code suffixes for attached M-Bus devices. The full tag carries the
// device ordinal in its channel position, e.g. 0-1:24.1.0 for device 1.
const (
	ObisDeviceType     = ":24.1.0" // Device type
	ObisEquipmentIdent = ":96.1.0" // Equipment identifier (gas, water, thermal)
	ObisDeviceValue    = ":24.2.1" // Last 5-minute value, timestamp plus reading
)
