package power

import (
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ADCSampler reads the battery voltage from an IIO raw channel file such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
func ADCSampler(fs afero.Fs, path string) func() (float64, error) {
	return func() (float64, error) {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return 0, pkgerrors.Wrapf(err, "failed to read adc channel %s", path)
		}
		raw, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 16)
		if err != nil {
			return 0, pkgerrors.Wrapf(err, "invalid adc reading in %s", path)
		}
		if raw >= 1<<adcBits {
			return 0, pkgerrors.Errorf("adc reading %d in %s exceeds %d bits", raw, path, adcBits)
		}
		return ADCToVoltage(uint16(raw)), nil
	}
}
