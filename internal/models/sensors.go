package models

import "strconv"

// NoData is rendered for any measurement the device did not report.
const NoData = "no data"

// BMPReading is the barometric sensor block.
type BMPReading struct {
	OK          *bool    `json:"ok,omitempty"`
	TempC       *float64 `json:"temp_c,omitempty"`
	PressureHpa *float64 `json:"press_hpa,omitempty"`
	AltitudeM   *float64 `json:"alt_m,omitempty"`
}

// DHTReading is the temperature/humidity sensor block.
type DHTReading struct {
	OK          *bool    `json:"ok,omitempty"`
	TempC       *float64 `json:"temp_c,omitempty"`
	HumidityPct *float64 `json:"hum_pct,omitempty"`
}

// SoilReading is the soil moisture sensor.
type SoilReading struct {
	Raw *float64 `json:"raw,omitempty"`
	Pct *float64 `json:"pct,omitempty"`
}

// SensorReading mirrors the /api/sensors payload. Pointers distinguish an absent
// field from a measured zero.
type SensorReading struct {
	BMP    *BMPReading  `json:"bmp,omitempty"`
	DHT    *DHTReading  `json:"dht,omitempty"`
	Soil   *SoilReading `json:"soil,omitempty"`
	Rain   *bool        `json:"rain,omitempty"`
	LastMs *int64       `json:"last_ms,omitempty"`
}

// UnmarshalJSON decodes each block on its own so one malformed block does not
// hide the others. It fails only when b is not an object.
func (r *SensorReading) UnmarshalJSON(b []byte) error {
	o, err := DecodeObject(b)
	if err != nil {
		return err
	}
	*r = SensorReading{
		BMP:    Field[BMPReading](o, "bmp"),
		DHT:    Field[DHTReading](o, "dht"),
		Soil:   Field[SoilReading](o, "soil"),
		Rain:   Field[bool](o, "rain"),
		LastMs: IntField(o, "last_ms"),
	}
	return nil
}

func (r *BMPReading) UnmarshalJSON(b []byte) error {
	o, err := DecodeObject(b)
	if err != nil {
		return err
	}
	*r = BMPReading{
		OK:          Field[bool](o, "ok"),
		TempC:       Field[float64](o, "temp_c"),
		PressureHpa: Field[float64](o, "press_hpa"),
		AltitudeM:   Field[float64](o, "alt_m"),
	}
	return nil
}

func (r *DHTReading) UnmarshalJSON(b []byte) error {
	o, err := DecodeObject(b)
	if err != nil {
		return err
	}
	*r = DHTReading{
		OK:          Field[bool](o, "ok"),
		TempC:       Field[float64](o, "temp_c"),
		HumidityPct: Field[float64](o, "hum_pct"),
	}
	return nil
}

func (r *SoilReading) UnmarshalJSON(b []byte) error {
	o, err := DecodeObject(b)
	if err != nil {
		return err
	}
	*r = SoilReading{
		Raw: Field[float64](o, "raw"),
		Pct: Field[float64](o, "pct"),
	}
	return nil
}

// FormatMeasurement renders v with the given number of decimals, or NoData if v is absent.
func FormatMeasurement(v *float64, decimals int) string {
	if v == nil {
		return NoData
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// FormatFlag renders a boolean flag, or NoData if it is absent.
func FormatFlag(v *bool, yes, no string) string {
	if v == nil {
		return NoData
	}
	if *v {
		return yes
	}
	return no
}
