package sensors

import "vermicompost_monitor/internal/models"

// WaterLevelFullRaw is the raw reading of the coarse level probe when the
// source tank is full.
const WaterLevelFullRaw = 2460

// mapRange is the integer linear re-mapping used by the firmware.
func mapRange(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// MoisturePercent maps a raw moisture reading from [water, air] to
// [100, 0]: drier soil reads higher and yields a lower percent.
func MoisturePercent(raw, air, water int) int {
	if air == water {
		return 0
	}
	return models.ClampPercent(mapRange(raw, water, air, 100, 0))
}

// WaterLevelPercent maps the coarse level probe to [0, 100].
func WaterLevelPercent(raw int) int {
	return models.ClampPercent(mapRange(raw, 0, WaterLevelFullRaw, 0, 100))
}
