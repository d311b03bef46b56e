// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/mpu6886/internal/mpu6886"
	"github.com/relabs-tech/mpu6886/internal/sensors"
)

// Allowable self-test response tolerances. A response whose magnitude stays
// within twice the tolerance on every excited axis is nominal; larger
// responses are compared per axis against the factory trim.
const (
	accelSelfTestTolerance = 0.040 * mpu6886.StandardGravity // 40 mG in m/s²
	gyroSelfTestTolerance  = 1.0                             // °/s
)

// SelfTestReport summarizes one self-test run of a single sensor. Response
// and trim entries for axes that were not excited are left zero.
type SelfTestReport struct {
	Sensor          string     `json:"sensor"`
	Axes            string     `json:"axes"`
	Response        [3]float64 `json:"response"`     // excited minus resting average
	Trim            [3]float64 `json:"factory_trim"` // factory reference in the same units
	Tolerance       float64    `json:"tolerance"`    // allowable tolerance for this sensor
	WithinTolerance bool       `json:"within_tolerance"`
	Tested          [3]bool    `json:"tested"`
	Pass            [3]bool    `json:"pass"`   // per axis, untested axes pass trivially
	Passed          bool       `json:"passed"` // all tested axes passed
	Time            string     `json:"time,omitempty"`
}

// EvaluateSelfTest applies the experimental acceptance check: when every
// excited axis responds within twice the allowable tolerance the stimulus is
// nominal and the test passes outright; otherwise each excited axis must not
// respond beyond its factory trim. Axes outside the excited set are skipped.
func EvaluateSelfTest(sensor mpu6886.Sensor, axes mpu6886.Axes, response, trim [3]float64) SelfTestReport {
	report := SelfTestReport{
		Sensor:    sensor.String(),
		Axes:      axes.String(),
		Tolerance: gyroSelfTestTolerance,
		Passed:    true,
	}
	if sensor == mpu6886.SensorAccel {
		report.Tolerance = accelSelfTestTolerance
	}

	axisBits := [3]mpu6886.Axes{mpu6886.AxisX, mpu6886.AxisY, mpu6886.AxisZ}
	peak := 0.0
	for i, bit := range axisBits {
		if axes&bit == 0 {
			report.Pass[i] = true
			continue
		}
		report.Tested[i] = true
		report.Response[i] = response[i]
		report.Trim[i] = trim[i]
		if mag := math.Abs(response[i]); mag > peak {
			peak = mag
		}
	}

	if peak <= 2*report.Tolerance {
		report.WithinTolerance = true
		for i := range report.Pass {
			report.Pass[i] = true
		}
		return report
	}

	for i := range axisBits {
		if !report.Tested[i] {
			continue
		}
		report.Pass[i] = math.Abs(report.Response[i]) <= report.Trim[i]
		if !report.Pass[i] {
			report.Passed = false
		}
	}
	return report
}

// CheckSelfTest runs the on-chip self-test for one sensor and grades the
// response.
func CheckSelfTest(mgr *sensors.Manager, sensor mpu6886.Sensor, axes mpu6886.Axes) (SelfTestReport, error) {
	response, err := mgr.RunSelfTest(sensor, axes)
	if err != nil {
		return SelfTestReport{}, err
	}
	trim, err := mgr.FactoryTrim(sensor)
	if err != nil {
		return SelfTestReport{}, err
	}
	report := EvaluateSelfTest(sensor, axes, response, trim)
	report.Time = time.Now().Format(time.RFC3339)
	return report, nil
}

// ParseSensor converts a sensor name from a command line or JSON message.
func ParseSensor(s string) (mpu6886.Sensor, error) {
	switch s {
	case "accel", "accelerometer":
		return mpu6886.SensorAccel, nil
	case "gyro", "gyroscope":
		return mpu6886.SensorGyro, nil
	}
	return 0, fmt.Errorf("unknown sensor %q (use accel or gyro)", s)
}

// ParseAxes converts an axis list like "xz" into selection bits. An empty
// string or "all" selects all three axes.
func ParseAxes(s string) (mpu6886.Axes, error) {
	if s == "" || s == "all" {
		return mpu6886.AxesAll, nil
	}
	var axes mpu6886.Axes
	for _, r := range s {
		switch r {
		case 'x', 'X':
			axes |= mpu6886.AxisX
		case 'y', 'Y':
			axes |= mpu6886.AxisY
		case 'z', 'Z':
			axes |= mpu6886.AxisZ
		default:
			return 0, fmt.Errorf("unknown axis %q in %q", string(r), s)
		}
	}
	return axes, nil
}
