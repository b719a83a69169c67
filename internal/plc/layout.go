package plc

import (
	"encoding/binary"
	"math"
)

// Layout do DB espelhado no PLC (big-endian, tipos S7)
//
//	0  REAL  velocidade do vento
//	4  REAL  direção do vento
//	8  REAL  ângulo do motor
//	12 BYTE  flags (bit0 ângulo conhecido, bit1 canal A aberto, bit2 canal B aberto)
//	14 DINT  amostras recebidas
//	18 DINT  ângulos recebidos
const (
	offsetSpeed     = 0
	offsetDirection = 4
	offsetAngle     = 8
	offsetFlags     = 12
	offsetSamples   = 14
	offsetAngles    = 18

	blockSize = 22
)

const (
	flagAngleKnown = 1 << iota
	flagChannelA
	flagChannelB
)

// Snapshot são os valores escritos a cada ciclo
type Snapshot struct {
	Speed      float64
	Direction  float64
	Angle      float64
	AngleKnown bool
	ChannelA   bool
	ChannelB   bool
	Samples    int32
	Angles     int32
}

// Encode serializa o snapshot no layout do DB
func (s Snapshot) Encode() []byte {
	buf := make([]byte, blockSize)
	putReal(buf[offsetSpeed:], s.Speed)
	putReal(buf[offsetDirection:], s.Direction)
	putReal(buf[offsetAngle:], s.Angle)

	var flags byte
	if s.AngleKnown {
		flags |= flagAngleKnown
	}
	if s.ChannelA {
		flags |= flagChannelA
	}
	if s.ChannelB {
		flags |= flagChannelB
	}
	buf[offsetFlags] = flags

	binary.BigEndian.PutUint32(buf[offsetSamples:], uint32(s.Samples))
	binary.BigEndian.PutUint32(buf[offsetAngles:], uint32(s.Angles))
	return buf
}

func putReal(b []byte, v float64) {
	binary.BigEndian.PutUint32(b, math.Float32bits(float32(v)))
}

func getReal(b []byte) float64 {
	return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
}
