// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads1299

// EnterImpedanceMode switches every channel to gain 1 with normal input and
// enables lead-off sensing on all channels for the polarity.
//
// This is destructive. The prior gain and input of each channel are not
// restored by ExitImpedanceMode and must be re-applied by the caller.
func (d *Device) EnterImpedanceMode(p Polarity) error {
	if !p.valid() {
		return ErrInvalidPolarity
	}
	return d.withRegisters(func() error {
		for ch := 0; ch < NumChannels; ch++ {
			_, err := d.modifyRegister(chSet(ch), chGainMask|chMuxMask,
				byte(Gain1)<<chGainShift|byte(InputNormal))
			if err != nil {
				return err
			}
			d.gains[ch] = Gain1
		}
		return d.t.WriteRegister(p.leadOffSense(), 0xff)
	})
}

// ExitImpedanceMode disables lead-off sensing for the polarity.
func (d *Device) ExitImpedanceMode(p Polarity) error {
	if !p.valid() {
		return ErrInvalidPolarity
	}
	return d.withRegisters(func() error {
		return d.t.WriteRegister(p.leadOffSense(), 0x00)
	})
}

// LeadOffStatus returns the lead-off status register for the polarity,
// one bit per channel.
func (d *Device) LeadOffStatus(p Polarity) (byte, error) {
	if !p.valid() {
		return 0, ErrInvalidPolarity
	}
	return d.ReadRegister(p.leadOffStatus())
}

// SetBiasChannel adds or removes the channel from the bias drive for the polarity.
//
// The bias buffer is powered while any channel of either polarity is
// driving the bias, and powered down with the last.
func (d *Device) SetBiasChannel(ch int, p Polarity, enable bool) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	if !p.valid() {
		return ErrInvalidPolarity
	}
	var v byte
	if enable {
		v = 1 << uint(ch)
	}
	return d.withRegisters(func() error {
		sense, err := d.modifyRegister(p.biasSense(), 1<<uint(ch), v)
		if err != nil {
			return err
		}
		return d.updateBiasBuffer(p, sense)
	})
}

// SetAllBias adds or removes all channels from the bias drive for the polarity.
func (d *Device) SetAllBias(p Polarity, enable bool) error {
	if !p.valid() {
		return ErrInvalidPolarity
	}
	var sense byte
	if enable {
		sense = 0xff
	}
	return d.withRegisters(func() error {
		if err := d.t.WriteRegister(p.biasSense(), sense); err != nil {
			return err
		}
		return d.updateBiasBuffer(p, sense)
	})
}

// updateBiasBuffer powers the bias buffer up or down to match the bias
// sense membership of both polarities.
func (d *Device) updateBiasBuffer(p Polarity, sense byte) error {
	other, err := d.t.ReadRegister(p.other().biasSense())
	if err != nil {
		return err
	}
	cfg := config3BiasOff
	if sense|other != 0 {
		cfg = config3BiasOn
	}
	return d.t.WriteRegister(RegConfig3, cfg)
}
