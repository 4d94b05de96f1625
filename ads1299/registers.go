// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads1299

import "errors"

// Command opcodes.
const (
	CmdWakeup  byte = 0x02
	CmdStandby byte = 0x04
	CmdReset   byte = 0x06
	CmdStart   byte = 0x08
	CmdStop    byte = 0x0a
	CmdRDATAC  byte = 0x10
	CmdSDATAC  byte = 0x11
	CmdRDATA   byte = 0x12
	CmdRREG    byte = 0x20
	CmdWREG    byte = 0x40
)

// Register addresses.
const (
	RegID        byte = 0x00
	RegConfig1   byte = 0x01
	RegConfig2   byte = 0x02
	RegConfig3   byte = 0x03
	RegLOff      byte = 0x04
	RegCh1Set    byte = 0x05 // CH2SET..CH8SET follow consecutively
	RegBiasSensP byte = 0x0d
	RegBiasSensN byte = 0x0e
	RegLOffSensP byte = 0x0f
	RegLOffSensN byte = 0x10
	RegLOffFlip  byte = 0x11
	RegLOffStatP byte = 0x12
	RegLOffStatN byte = 0x13
	RegGPIO      byte = 0x14
	RegMisc1     byte = 0x15
	RegMisc2     byte = 0x16
	RegConfig4   byte = 0x17

	NumRegisters = 0x18
)

// CHnSET fields.
const (
	chPowerDown byte = 0x80
	chGainMask  byte = 0x70
	chGainShift      = 4
	chSRB2      byte = 0x08
	chMuxMask   byte = 0x07
)

// Register values used at bring-up and by the mode switches.
const (
	config1RateMask byte = 0x07
	// reserved bits 110, internal test signal, 2x amplitude, fclk/2^20.
	config2Default byte = 0xd5
	// internal reference buffer, bias measurement, internal bias reference,
	// bias buffer powered.
	config3Default byte = 0xfc
	// bias buffer powered with internal bias reference.
	config3BiasOn byte = 0xec
	// bias buffer powered down.
	config3BiasOff byte = 0xe0
	// gain 24, normal input, SRB2 open, powered.
	chSetDefault byte = 0x60

	idDeviceMask byte = 0x1f
	// ADS1299 8 channel.
	idADS1299 byte = 0x1e
)

// NumChannels is the number of input channels on the chip.
const NumChannels = 8

// Gain is the PGA gain code of a channel.
type Gain int

// Supported gains.
const (
	Gain1 Gain = iota
	Gain2
	Gain4
	Gain6
	Gain8
	Gain12
	Gain24
	numGains
)

var gainMultipliers = [numGains]int{1, 2, 4, 6, 8, 12, 24}

// Multiplier returns the gain as a multiplier, or 0 for an invalid gain.
func (g Gain) Multiplier() int {
	if g < 0 || g >= numGains {
		return 0
	}
	return gainMultipliers[g]
}

// GainFromMultiplier returns the Gain corresponding to the multiplier.
func GainFromMultiplier(m int) (Gain, error) {
	for g, gm := range gainMultipliers {
		if gm == m {
			return Gain(g), nil
		}
	}
	return 0, ErrInvalidGain
}

// Input is the input multiplexer selection of a channel.
type Input int

// Input multiplexer selections.
const (
	InputNormal Input = iota
	InputShorted
	InputBiasMeas
	InputSupply
	InputTemp
	InputTestSignal
	InputBiasDRP
	InputBiasDRN
	numInputs
)

var inputNames = [numInputs]string{
	"normal", "shorted", "bias-meas", "supply", "temp", "test", "bias-drp", "bias-drn",
}

func (i Input) String() string {
	if i < 0 || i >= numInputs {
		return "unknown"
	}
	return inputNames[i]
}

// ParseInput returns the Input with the given name.
func ParseInput(s string) (Input, error) {
	for i, n := range inputNames {
		if n == s {
			return Input(i), nil
		}
	}
	return 0, ErrInvalidInput
}

// DataRate is the output data rate code stored in CONFIG1.
type DataRate int

// Supported data rates.
const (
	Rate16kSPS DataRate = iota
	Rate8kSPS
	Rate4kSPS
	Rate2kSPS
	Rate1kSPS
	Rate500SPS
	Rate250SPS
	numDataRates
)

var dataRateSPS = [numDataRates]int{16000, 8000, 4000, 2000, 1000, 500, 250}

// SamplesPerSecond returns the rate in samples per second, or 0 for an invalid rate.
func (r DataRate) SamplesPerSecond() int {
	if r < 0 || r >= numDataRates {
		return 0
	}
	return dataRateSPS[r]
}

// DataRateFromSPS returns the DataRate for a rate in samples per second.
func DataRateFromSPS(sps int) (DataRate, error) {
	for r, s := range dataRateSPS {
		if s == sps {
			return DataRate(r), nil
		}
	}
	return 0, ErrInvalidDataRate
}

// Polarity selects the positive or negative side of a lead-off or bias sense register.
type Polarity int

// Polarities.
const (
	Positive Polarity = iota
	Negative
)

// ParsePolarity parses "p" or "n".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "p", "P", "positive":
		return Positive, nil
	case "n", "N", "negative":
		return Negative, nil
	}
	return 0, ErrInvalidPolarity
}

func (p Polarity) valid() bool {
	return p == Positive || p == Negative
}

func (p Polarity) leadOffSense() byte {
	if p == Negative {
		return RegLOffSensN
	}
	return RegLOffSensP
}

func (p Polarity) leadOffStatus() byte {
	if p == Negative {
		return RegLOffStatN
	}
	return RegLOffStatP
}

func (p Polarity) biasSense() byte {
	if p == Negative {
		return RegBiasSensN
	}
	return RegBiasSensP
}

func (p Polarity) other() Polarity {
	if p == Negative {
		return Positive
	}
	return Negative
}

var (
	// ErrInvalidChannel indicates a channel index outside 0..7.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidGain indicates an unsupported gain.
	ErrInvalidGain = errors.New("invalid gain")

	// ErrInvalidInput indicates an unsupported input multiplexer selection.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDataRate indicates an unsupported data rate.
	ErrInvalidDataRate = errors.New("invalid data rate")

	// ErrInvalidPolarity indicates a polarity other than Positive or Negative.
	ErrInvalidPolarity = errors.New("invalid polarity")

	// ErrNotContinuous indicates a frame read while continuous read is disabled.
	ErrNotContinuous = errors.New("continuous read disabled")

	// ErrShortFrame indicates a frame buffer shorter than FrameSize.
	ErrShortFrame = errors.New("short frame")
)
