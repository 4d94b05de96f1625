// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads1299

// ChannelConfig is the decoded configuration of a channel.
type ChannelConfig struct {
	Enabled bool
	Gain    Gain
	Input   Input
	SRB2    bool
	BiasP   bool
	BiasN   bool
}

func validChannel(ch int) bool {
	return ch >= 0 && ch < NumChannels
}

// ChannelRegister returns the raw CHnSET register of the channel.
func (d *Device) ChannelRegister(ch int) (byte, error) {
	if !validChannel(ch) {
		return 0, ErrInvalidChannel
	}
	return d.ReadRegister(chSet(ch))
}

// Channel returns the configuration of the channel, including its
// membership of the bias sense registers.
func (d *Device) Channel(ch int) (cfg ChannelConfig, err error) {
	if !validChannel(ch) {
		return cfg, ErrInvalidChannel
	}
	err = d.withRegisters(func() error {
		v, err := d.t.ReadRegister(chSet(ch))
		if err != nil {
			return err
		}
		bp, err := d.t.ReadRegister(RegBiasSensP)
		if err != nil {
			return err
		}
		bn, err := d.t.ReadRegister(RegBiasSensN)
		if err != nil {
			return err
		}
		mask := byte(1) << uint(ch)
		cfg = ChannelConfig{
			Enabled: v&chPowerDown == 0,
			Gain:    Gain((v & chGainMask) >> chGainShift),
			Input:   Input(v & chMuxMask),
			SRB2:    v&chSRB2 != 0,
			BiasP:   bp&mask != 0,
			BiasN:   bn&mask != 0,
		}
		return nil
	})
	return
}

// SetChannelEnabled powers the channel up or down.
func (d *Device) SetChannelEnabled(ch int, enable bool) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	return d.withRegisters(func() error {
		return d.setEnabled(ch, enable)
	})
}

// SetAllChannelsEnabled powers all channels up or down.
func (d *Device) SetAllChannelsEnabled(enable bool) error {
	return d.withRegisters(func() error {
		for ch := 0; ch < NumChannels; ch++ {
			if err := d.setEnabled(ch, enable); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Device) setEnabled(ch int, enable bool) error {
	var v byte
	if !enable {
		v = chPowerDown
	}
	_, err := d.modifyRegister(chSet(ch), chPowerDown, v)
	return err
}

// SetGain sets the PGA gain of the channel.
func (d *Device) SetGain(ch int, g Gain) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	if g.Multiplier() == 0 {
		return ErrInvalidGain
	}
	return d.withRegisters(func() error {
		_, err := d.modifyRegister(chSet(ch), chGainMask, byte(g)<<chGainShift)
		if err == nil {
			d.gains[ch] = g
		}
		return err
	})
}

// SetInput sets the input multiplexer of the channel.
func (d *Device) SetInput(ch int, in Input) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	if in < 0 || in >= numInputs {
		return ErrInvalidInput
	}
	return d.withRegisters(func() error {
		_, err := d.modifyRegister(chSet(ch), chMuxMask, byte(in))
		return err
	})
}

// SetSRB2 connects or disconnects the channel's negative input to the SRB2
// reference bus.
func (d *Device) SetSRB2(ch int, enable bool) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	var v byte
	if enable {
		v = chSRB2
	}
	return d.withRegisters(func() error {
		_, err := d.modifyRegister(chSet(ch), chSRB2, v)
		return err
	})
}

// SetDataRate sets the output data rate.
func (d *Device) SetDataRate(r DataRate) error {
	if r.SamplesPerSecond() == 0 {
		return ErrInvalidDataRate
	}
	return d.withRegisters(func() error {
		_, err := d.modifyRegister(RegConfig1, config1RateMask, byte(r))
		return err
	})
}

// DataRate returns the output data rate.
func (d *Device) DataRate() (DataRate, error) {
	v, err := d.ReadRegister(RegConfig1)
	return DataRate(v & config1RateMask), err
}
