package imu

import (
	"time"

	"github.com/relabs-tech/mpu6886/internal/mpu6886"
)

// Raw represents a single uncompensated IMU sample: accelerometer, gyroscope
// and die temperature as signed 16-bit counts.
type Raw struct {
	Source string `json:"source"` // "mpu6886" or "sim"

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Temp int16 `json:"temp"` // die temperature
}

// Sample is a Raw converted to physical units.
type Sample struct {
	Source string `json:"source"`

	Ax float64 `json:"ax"` // m/s²
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // °/s
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	TempC float64 `json:"temp_c"`
	TempF float64 `json:"temp_f"`

	Time string `json:"time"` // RFC3339
}

type Source interface {
	NextRaw() (Raw, error)
}

// Convert turns a raw sample into physical units using the full-scale ranges
// the sample was taken at.
func (r Raw) Convert(ar mpu6886.AccelRange, gr mpu6886.GyroRange, at time.Time) (Sample, error) {
	accel, err := mpu6886.ToAcceleration([3]int16{r.Ax, r.Ay, r.Az}, ar)
	if err != nil {
		return Sample{}, err
	}
	gyro, err := mpu6886.ToGyro([3]int16{r.Gx, r.Gy, r.Gz}, gr)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Source: r.Source,
		Ax:     accel[0],
		Ay:     accel[1],
		Az:     accel[2],
		Gx:     gyro[0],
		Gy:     gyro[1],
		Gz:     gyro[2],
		TempC:  mpu6886.ToTemperatureC(r.Temp),
		TempF:  mpu6886.ToTemperatureF(r.Temp),
		Time:   at.Format(time.RFC3339),
	}, nil
}
