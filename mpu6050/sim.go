package mpu6050

import (
	"encoding/binary"

	"mpureader/core"
)

// Bytes encodes s in burst order, big-endian.
func (s RawSample) Bytes() [BurstLen]byte {
	var b [BurstLen]byte
	for i, v := range []int16{s.AccX, s.AccY, s.AccZ, s.Temp, s.GyroX, s.GyroY, s.GyroZ} {
		binary.BigEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

// Simulated returns a register device that answers like an MPU-6050. When
// next is non-nil it supplies the measurement registers before every read.
func Simulated(next func() RawSample) *core.SimDevice {
	dev := &core.SimDevice{}
	if next != nil {
		dev.BeforeRead = func(regs *[256]byte) {
			b := next().Bytes()
			copy(regs[RegAccelXoutH:], b[:])
		}
	}
	return dev
}
