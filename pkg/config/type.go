package config

type MeterCollectorConfig struct {
	MeterAPIHost string `toml:"meter_api_host"`
	TLSEnabled   bool   `toml:"tls_enabled"`
}

type MeterAPIConfig struct {
	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`
	// Discard a partial telegram stuck in assembly after this many seconds.
	// 0 disables the guard.
	AssemblyTimeoutSeconds  int    `toml:"assembly_timeout_seconds"`
	ListenAddress           string `toml:"listen_address"`
	ListenPort              int    `toml:"listen_port"`
	SolarInverterIp         string `toml:"solar_inverter_ip"`
	SolarInverterModbusPort int    `toml:"solar_inverter_modbus_port"`
}
