// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads1299

// FrameSize is the length of a continuous read frame:
// a 24 bit status word followed by 8 24 bit samples.
const FrameSize = 3 + NumChannels*3

// Frame is the result of one conversion cycle.
type Frame struct {
	// Status is the 24 bit status word: 1100, LOFF_STATP, LOFF_STATN, GPIO.
	Status  uint32
	Samples [NumChannels]int32
}

// LeadOff returns the positive and negative lead-off status bits from the
// status word.
func (f Frame) LeadOff() (p, n byte) {
	return byte(f.Status >> 12), byte(f.Status >> 4)
}

// SignExtend24 converts a big endian 24 bit two's complement value to int32.
func SignExtend24(b []byte) int32 {
	return int32(uint32(b[0])<<24|uint32(b[1])<<16|uint32(b[2])<<8) >> 8
}

// DecodeFrame decodes a raw continuous read frame.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	f := Frame{
		Status: uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]),
	}
	for ch := 0; ch < NumChannels; ch++ {
		f.Samples[ch] = SignExtend24(b[3+ch*3:])
	}
	return f, nil
}
