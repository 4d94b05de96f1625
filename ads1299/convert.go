// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads1299

// Full scale code denominators for the LSB scale factor.
const (
	// FullScaleUnsigned is the full 24 bit unsigned range, 2^24 - 1, as used
	// by the deployed firmware.
	FullScaleUnsigned = 1<<24 - 1

	// FullScaleSigned is the datasheet full scale, 2^23, for which
	// 1 LSB = VREF / gain / 2^23.
	FullScaleSigned = 1 << 23

	// DefaultVRef is the reference voltage assumed by the deployed firmware.
	DefaultVRef = 2.5
)

// Converter maps raw sample codes to volts.
type Converter struct {
	VRef      float64
	FullScale float64
}

// DefaultConverter returns the Converter matching the deployed firmware.
func DefaultConverter() Converter {
	return Converter{VRef: DefaultVRef, FullScale: FullScaleUnsigned}
}

// LSB returns the volts per code at the gain, or 0 for an invalid gain.
func (c Converter) LSB(g Gain) float64 {
	m := g.Multiplier()
	if m == 0 || c.FullScale == 0 {
		return 0
	}
	return c.VRef / float64(m) / c.FullScale
}

// ToVoltage converts a sign extended raw code to volts.
func (c Converter) ToVoltage(raw int32, g Gain) float64 {
	return float64(raw) * c.LSB(g)
}

// Volts converts all the samples of a frame to volts.
func (c Converter) Volts(f Frame, gains [NumChannels]Gain) (v [NumChannels]float64) {
	for ch, raw := range f.Samples {
		v[ch] = c.ToVoltage(raw, gains[ch])
	}
	return
}
