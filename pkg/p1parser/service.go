// Extracts a types.P1Data record from an assembled P1 telegram.
//
// The telegram grammar is line oriented: every data line starts with an OBIS
// tag followed by one or more parenthesized value groups. Each tag has a
// fixed decimal layout, so values are extracted positionally rather than
// scanned. Every slice operation is bounds checked; a line missing an
// expected delimiter is skipped and the record field keeps its zero value.
package p1parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rneurink/P1MeterParser/pkg/p1crc"
	"github.com/rneurink/P1MeterParser/pkg/types"
)

// Offset within a data line from which the value decimal point is searched.
// All tag headers keep their dots before this position.
const dotSearchOffset = 10

// Parse decodes a complete telegram into a fresh P1Data record.
// Call it only once the framer reports a ready frame, then reset the framer.
// A CRC mismatch is reported through ValidCRC and never suppresses field
// extraction; the caller decides whether to discard the record.
func Parse(frame []byte) *types.P1Data {
	data := &types.P1Data{}

	// The channel digit of the last M-Bus tag gives the sub device count,
	// the master device itself is channel 0.
	if i := bytes.LastIndexByte(frame, '-'); i >= 0 {
		if v, ok := parseUint(frame[i+1:]); ok {
			data.NumberOfMBusDevices = uint8(v)
		}
	}

	if start := bytes.IndexByte(frame, '/'); start >= 0 {
		if end := bytes.IndexByte(frame[start:], '\n'); end > 0 {
			data.HeaderInfo = strings.TrimSuffix(string(frame[start+1:start+end]), "\r")
		}
	}

	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		parseLine(data, line)
	}

	crcIndex := bytes.IndexByte(frame, '!')
	if crcIndex >= 0 {
		data.CalculatedCRC = p1crc.Checksum(frame[:crcIndex+1])
		if crcIndex+5 <= len(frame) {
			if v, err := strconv.ParseUint(string(frame[crcIndex+1:crcIndex+5]), 16, 16); err == nil {
				data.CRC = uint16(v)
			}
		}
		data.ValidCRC = data.CRC == data.CalculatedCRC
	}

	return data
}

func parseLine(data *types.P1Data, line []byte) {
	switch {
	case hasTag(line, ObisVersion):
		if v, ok := uintAfterParen(line); ok {
			data.P1Version = uint8(v)
		}

	case hasTag(line, ObisDateTime):
		if ts, ok := timestampAfterParen(line); ok {
			data.DateTime = ts
		}

	case hasTag(line, ObisEquipmentID):
		data.EquipmentID = boundedString(line)

	case hasTag(line, ObisTariff1Delivered):
		if v, ok := fixedPointValue(line, 6, 3); ok {
			data.DeliveredTariff1 = v
		}

	case hasTag(line, ObisTariff2Delivered):
		if v, ok := fixedPointValue(line, 6, 3); ok {
			data.DeliveredTariff2 = v
		}

	case hasTag(line, ObisTariff1Produced):
		if v, ok := fixedPointValue(line, 6, 3); ok {
			data.ProducedTariff1 = v
		}

	case hasTag(line, ObisTariff2Produced):
		if v, ok := fixedPointValue(line, 6, 3); ok {
			data.ProducedTariff2 = v
		}

	case hasTag(line, ObisTariffIndicator):
		if v, ok := uintAfterParen(line); ok {
			data.CurrentTariff = uint8(v)
		}

	case hasTag(line, ObisActualDelivered):
		if v, ok := fixedPointValue(line, 2, 3); ok {
			data.ActualDelivered = v
		}

	case hasTag(line, ObisActualProduced):
		if v, ok := fixedPointValue(line, 2, 3); ok {
			data.ActualProduced = v
		}

	case hasTag(line, ObisNumberPowerFail):
		if v, ok := uintAfterParen(line); ok {
			data.PowerFailures = v
		}

	case hasTag(line, ObisLongPowerFail):
		if v, ok := uintAfterParen(line); ok {
			data.LongPowerFailures = v
		}

	case hasTag(line, ObisPowerLog):
		parsePowerFailureLog(data, line)

	case hasTag(line, ObisNumVoltageSagL1):
		setUintAfterParen(line, &data.VoltageSags[0])
	case hasTag(line, ObisNumVoltageSagL2):
		setUintAfterParen(line, &data.VoltageSags[1])
	case hasTag(line, ObisNumVoltageSagL3):
		setUintAfterParen(line, &data.VoltageSags[2])

	case hasTag(line, ObisNumVoltageSwlL1):
		setUintAfterParen(line, &data.VoltageSwells[0])
	case hasTag(line, ObisNumVoltageSwlL2):
		setUintAfterParen(line, &data.VoltageSwells[1])
	case hasTag(line, ObisNumVoltageSwlL3):
		setUintAfterParen(line, &data.VoltageSwells[2])

	case hasTag(line, ObisTextMessage):
		data.TextMessage = boundedString(line)

	// Voltage comes as VVV.V, stored in 100mV
	case hasTag(line, ObisVoltageL1):
		setFixedPoint(line, 3, 1, &data.Voltage[0])
	case hasTag(line, ObisVoltageL2):
		setFixedPoint(line, 3, 1, &data.Voltage[1])
	case hasTag(line, ObisVoltageL3):
		setFixedPoint(line, 3, 1, &data.Voltage[2])

	case hasTag(line, ObisCurrentL1):
		setUintAfterParen(line, &data.Current[0])
	case hasTag(line, ObisCurrentL2):
		setUintAfterParen(line, &data.Current[1])
	case hasTag(line, ObisCurrentL3):
		setUintAfterParen(line, &data.Current[2])

	// Phase power comes as kk.www kW, stored in watts
	case hasTag(line, ObisPowerPosL1):
		setFixedPoint(line, 2, 3, &data.PowerDelivered[0])
	case hasTag(line, ObisPowerPosL2):
		setFixedPoint(line, 2, 3, &data.PowerDelivered[1])
	case hasTag(line, ObisPowerPosL3):
		setFixedPoint(line, 2, 3, &data.PowerDelivered[2])

	case hasTag(line, ObisPowerNegL1):
		setFixedPoint(line, 2, 3, &data.PowerProduced[0])
	case hasTag(line, ObisPowerNegL2):
		setFixedPoint(line, 2, 3, &data.PowerProduced[1])
	case hasTag(line, ObisPowerNegL3):
		setFixedPoint(line, 2, 3, &data.PowerProduced[2])

	// M-Bus tags are recognized by their suffix past the channel prefix
	case hasDeviceTag(line, ObisDeviceType):
		if dev := deviceSlot(data, line); dev != nil {
			if v, ok := uintAfterParen(line); ok {
				dev.DeviceType = types.MBusDeviceType(v)
			}
		}

	case hasDeviceTag(line, ObisEquipmentIdent):
		if dev := deviceSlot(data, line); dev != nil {
			dev.EquipmentID = boundedString(line)
		}

	case hasDeviceTag(line, ObisDeviceValue):
		if dev := deviceSlot(data, line); dev != nil {
			parseDeviceReading(dev, line)
		}
	}
}

// parsePowerFailureLog reads the long power failure event log. The value
// starts with the entry count and the event log item id, followed per entry
// by an end-of-failure timestamp group and a duration group.
func parsePowerFailureLog(data *types.P1Data, line []byte) {
	ip := bytes.IndexByte(line, '(')
	if ip < 0 {
		return
	}
	count, ok := parseUint(line[ip+1:])
	if !ok {
		return
	}
	if count > types.MaxPowerFailureLogs {
		count = types.MaxPowerFailureLogs
	}

	// The count is followed by the event log item id group
	idIdx := indexOfFrom(line, '(', ip+1)
	if idIdx < 0 || !bytes.HasPrefix(line[idIdx+1:], []byte(ObisPowerLogItem)) {
		return
	}

	cursor := idIdx
	for i := uint32(0); i < count; i++ {
		tsIdx := indexOfFrom(line, '(', cursor+1)
		if tsIdx < 0 || tsIdx+1+timestampLen > len(line) {
			return
		}
		durIdx := indexOfFrom(line, '(', tsIdx+1)
		if durIdx < 0 {
			return
		}
		dur, ok := parseFloat(line[durIdx+1:])
		if !ok {
			return
		}
		data.PowerFailureLogs[i] = types.PowerFailureLog{
			DateTime: string(line[tsIdx+1 : tsIdx+1+timestampLen]),
			Duration: dur,
		}
		cursor = durIdx
	}
}

// parseDeviceReading reads the 5-minute value group of an M-Bus device:
// (timestamp)(vvvvv.vvv*unit)
func parseDeviceReading(dev *types.MBusDevice, line []byte) {
	tsIdx := bytes.IndexByte(line, '(')
	if tsIdx < 0 || tsIdx+1+timestampLen > len(line) {
		return
	}
	dev.Reading.DateTime = string(line[tsIdx+1 : tsIdx+1+timestampLen])

	valIdx := indexOfFrom(line, '(', tsIdx+1)
	if valIdx < 0 || valIdx+1+5 > len(line) {
		return
	}
	dotIdx := indexOfFrom(line, '.', valIdx+1)
	if dotIdx < 0 || dotIdx+1+3 > len(line) {
		return
	}
	digits := make([]byte, 0, 8)
	digits = append(digits, line[valIdx+1:valIdx+1+5]...)
	digits = append(digits, line[dotIdx+1:dotIdx+1+3]...)
	if v, ok := parseUint(digits); ok {
		dev.Reading.Value = v
	}

	unitStart := indexOfFrom(line, '*', valIdx+1)
	if unitStart < 0 {
		return
	}
	unitEnd := indexOfFrom(line, ')', unitStart)
	if unitEnd < 0 {
		return
	}
	dev.Reading.Unit = string(line[unitStart+1 : unitEnd])
}

// deviceSlot resolves the M-Bus channel ordinal of the line to a device
// slot. Ordinals outside 1..MaxMBusDevices are dropped.
func deviceSlot(data *types.P1Data, line []byte) *types.MBusDevice {
	di := bytes.IndexByte(line, '-')
	if di < 0 {
		return nil
	}
	ordinal, ok := parseUint(line[di+1:])
	if !ok || ordinal < 1 || ordinal > types.MaxMBusDevices {
		return nil
	}
	return &data.MBusDevices[ordinal-1]
}

/***************** Extraction helpers *****************/

const timestampLen = 13 // YYMMDDhhmmss plus the DST flag character

func hasTag(line []byte, tag string) bool {
	return bytes.HasPrefix(line, []byte(tag))
}

func hasDeviceTag(line []byte, suffix string) bool {
	return len(line) > 3 && bytes.HasPrefix(line[3:], []byte(suffix))
}

func indexOfFrom(line []byte, c byte, from int) int {
	if from < 0 || from >= len(line) {
		return -1
	}
	i := bytes.IndexByte(line[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}

// parseUint reads leading decimal digits. Fails when there are none or the
// value does not fit 32 bits.
func parseUint(b []byte) (uint32, bool) {
	var v uint64
	n := 0
	for ; n < len(b) && b[n] >= '0' && b[n] <= '9'; n++ {
		v = v*10 + uint64(b[n]-'0')
		if v > 0xFFFFFFFF {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	return uint32(v), true
}

// parseFloat reads a leading decimal number, e.g. the power failure duration
// "0000000240.5*s" up to the unit marker.
func parseFloat(b []byte) (float64, bool) {
	n := 0
	for ; n < len(b) && (b[n] >= '0' && b[n] <= '9' || b[n] == '.'); n++ {
	}
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(b[:n]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func uintAfterParen(line []byte) (uint32, bool) {
	ip := bytes.IndexByte(line, '(')
	if ip < 0 || ip+1 >= len(line) {
		return 0, false
	}
	return parseUint(line[ip+1:])
}

func setUintAfterParen(line []byte, dst *uint32) {
	if v, ok := uintAfterParen(line); ok {
		*dst = v
	}
}

// fixedPointValue collapses a fixed width decimal value into an integer
// scaled by 10^frac: whole digits follow '(' and frac digits follow the
// decimal point. The field widths are constant per tag.
func fixedPointValue(line []byte, whole, frac int) (uint32, bool) {
	ip := bytes.IndexByte(line, '(')
	if ip < 0 || ip+1+whole > len(line) {
		return 0, false
	}
	dotIdx := indexOfFrom(line, '.', dotSearchOffset)
	if dotIdx < 0 || dotIdx+1+frac > len(line) {
		return 0, false
	}
	digits := make([]byte, 0, whole+frac)
	digits = append(digits, line[ip+1:ip+1+whole]...)
	digits = append(digits, line[dotIdx+1:dotIdx+1+frac]...)
	v, ok := parseUint(digits)
	if !ok || countDigits(digits) != len(digits) {
		return 0, false
	}
	return v, true
}

func setFixedPoint(line []byte, whole, frac int, dst *uint32) {
	if v, ok := fixedPointValue(line, whole, frac); ok {
		*dst = v
	}
}

func countDigits(b []byte) int {
	n := 0
	for ; n < len(b) && b[n] >= '0' && b[n] <= '9'; n++ {
	}
	return n
}

// timestampAfterParen copies the fixed width date-time stamp after '('.
func timestampAfterParen(line []byte) (string, bool) {
	ip := bytes.IndexByte(line, '(')
	if ip < 0 || ip+1+timestampLen > len(line) {
		return "", false
	}
	return string(line[ip+1 : ip+1+timestampLen]), true
}

// boundedString copies the text between '(' and the closing parenthesis,
// which sits two characters before the line terminator.
func boundedString(line []byte) string {
	ip := bytes.IndexByte(line, '(')
	end := len(line) - 2
	if ip < 0 || end <= ip+1 {
		return ""
	}
	return string(line[ip+1 : end])
}
