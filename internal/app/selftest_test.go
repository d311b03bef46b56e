// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/relabs-tech/mpu6886/internal/mpu6886"
)

func TestEvaluateSelfTestWithinTolerance(t *testing.T) {
	cases := []struct {
		name     string
		sensor   mpu6886.Sensor
		response [3]float64
		wantTol  float64
	}{
		{"gyro under gate", mpu6886.SensorGyro, [3]float64{1.5, -1.8, 0.3}, 1.0},
		{"gyro at gate", mpu6886.SensorGyro, [3]float64{2.0, 0, 0}, 1.0},
		{"accel under gate", mpu6886.SensorAccel, [3]float64{0.5, -0.5, 0.5}, 0.040 * mpu6886.StandardGravity},
	}

	for _, tc := range cases {
		report := EvaluateSelfTest(tc.sensor, mpu6886.AxesAll, tc.response, [3]float64{})
		if !report.WithinTolerance {
			t.Errorf("%s: expected response within 2*%v", tc.name, tc.wantTol)
		}
		if !report.Passed || report.Pass != [3]bool{true, true, true} {
			t.Errorf("%s: pass = %v (overall %v), want all true", tc.name, report.Pass, report.Passed)
		}
		if report.Tolerance != tc.wantTol {
			t.Errorf("%s: tolerance = %v, want %v", tc.name, report.Tolerance, tc.wantTol)
		}
	}
}

func TestEvaluateSelfTestTrimComparison(t *testing.T) {
	// Once any excited axis responds beyond twice the tolerance, every
	// excited axis is graded against its factory trim.
	cases := []struct {
		name     string
		response [3]float64
		trim     [3]float64
		wantPass [3]bool
		wantAll  bool
	}{
		{"all within trim", [3]float64{5.0, 3.0, -4.0}, [3]float64{6.0, 3.0, 4.0}, [3]bool{true, true, true}, true},
		{"one beyond trim", [3]float64{5.0, 3.0, -4.0}, [3]float64{6.0, 2.5, 4.0}, [3]bool{true, false, true}, false},
		{"small axis with zero trim", [3]float64{5.0, 0.2, 0.0}, [3]float64{6.0, 0.0, 0.0}, [3]bool{true, false, true}, false},
	}

	for _, tc := range cases {
		report := EvaluateSelfTest(mpu6886.SensorGyro, mpu6886.AxesAll, tc.response, tc.trim)
		if report.WithinTolerance {
			t.Errorf("%s: gate should have tripped", tc.name)
		}
		if report.Pass != tc.wantPass {
			t.Errorf("%s: pass = %v, want %v", tc.name, report.Pass, tc.wantPass)
		}
		if report.Passed != tc.wantAll {
			t.Errorf("%s: passed = %v, want %v", tc.name, report.Passed, tc.wantAll)
		}
	}
}

func TestEvaluateSelfTestSkipsUntestedAxes(t *testing.T) {
	response := [3]float64{25.0, 1.5, 25.0}
	trim := [3]float64{2.0, 2.0, 2.0}

	report := EvaluateSelfTest(mpu6886.SensorGyro, mpu6886.AxisY, response, trim)

	if report.Tested != [3]bool{false, true, false} {
		t.Errorf("tested = %v, want only Y", report.Tested)
	}
	// X and Z respond far beyond the gate, but they were not excited, so
	// the Y response alone decides and stays within tolerance.
	if !report.WithinTolerance {
		t.Error("expected the untested responses to be ignored")
	}
	if report.Pass != [3]bool{true, true, true} || !report.Passed {
		t.Errorf("pass = %v (overall %v), want all true", report.Pass, report.Passed)
	}
	if report.Response[0] != 0 || report.Response[2] != 0 {
		t.Errorf("untested responses should be zeroed, got %v", report.Response)
	}
	if report.Sensor != "gyro" || report.Axes != "Y" {
		t.Errorf("labels = %q/%q, want gyro/Y", report.Sensor, report.Axes)
	}
}

func TestEvaluateSelfTestUnprogrammedTrimFails(t *testing.T) {
	// A strong response cannot pass against a zeroed trim register.
	report := EvaluateSelfTest(mpu6886.SensorGyro, mpu6886.AxesAll, [3]float64{5, 5, 5}, [3]float64{})
	if report.WithinTolerance {
		t.Error("gate should have tripped")
	}
	if report.Passed {
		t.Error("expected failure against an unprogrammed trim")
	}
	if report.Pass != [3]bool{false, false, false} {
		t.Errorf("pass = %v, want all false", report.Pass)
	}
}

func TestParseSensor(t *testing.T) {
	cases := []struct {
		in      string
		want    mpu6886.Sensor
		wantErr bool
	}{
		{"accel", mpu6886.SensorAccel, false},
		{"accelerometer", mpu6886.SensorAccel, false},
		{"gyro", mpu6886.SensorGyro, false},
		{"gyroscope", mpu6886.SensorGyro, false},
		{"mag", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseSensor(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSensor(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSensor(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSensor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAxes(t *testing.T) {
	cases := []struct {
		in      string
		want    mpu6886.Axes
		wantErr bool
	}{
		{"", mpu6886.AxesAll, false},
		{"all", mpu6886.AxesAll, false},
		{"x", mpu6886.AxisX, false},
		{"yz", mpu6886.AxisY | mpu6886.AxisZ, false},
		{"XZY", mpu6886.AxesAll, false},
		{"q", 0, true},
		{"xq", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseAxes(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAxes(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAxes(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAxes(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
