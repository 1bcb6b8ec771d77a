// CRC validation for P1 telegrams.
// The meter appends a CRC16 over '/' through '!' as 4 uppercase hex digits.
// The algorithm is the reversed CRC-16-IBM (polynomial 0xA001, init 0),
// which is the CRC16/ARC parameter set.
package p1crc

import (
	"fmt"

	"github.com/sigurn/crc16"
)

var arcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Checksum computes the telegram CRC over data. An empty slice yields 0.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, arcTable)
}

// ChecksumHex renders the CRC the way the meter transmits it.
func ChecksumHex(data []byte) string {
	return fmt.Sprintf("%04X", Checksum(data))
}
