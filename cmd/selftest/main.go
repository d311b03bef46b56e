// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/mpu6886/internal/app"
	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/mpu6886"
	"github.com/relabs-tech/mpu6886/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./mpu6886_config.txt", "path to configuration file")
	sensorFlag := flag.String("sensor", "both", "sensor to test: accel, gyro or both")
	axesFlag := flag.String("axes", "all", "axes to excite, e.g. xyz or y")
	flag.Parse()

	log.Println("starting mpu6886 self-test")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	axes, err := app.ParseAxes(*axesFlag)
	if err != nil {
		log.Fatalf("bad -axes: %v", err)
	}

	var targets []mpu6886.Sensor
	if *sensorFlag == "both" {
		targets = []mpu6886.Sensor{mpu6886.SensorAccel, mpu6886.SensorGyro}
	} else {
		sensor, err := app.ParseSensor(*sensorFlag)
		if err != nil {
			log.Fatalf("bad -sensor: %v", err)
		}
		targets = []mpu6886.Sensor{sensor}
	}

	mgr := sensors.GetIMUManager()
	if err := mgr.Init(); err != nil {
		log.Fatalf("failed to initialize IMU manager: %v", err)
	}

	ok := true
	for _, sensor := range targets {
		report, err := app.CheckSelfTest(mgr, sensor, axes)
		if err != nil {
			log.Fatalf("%s self-test error: %v", sensor, err)
		}
		printReport(report)
		if !report.Passed {
			ok = false
		}
	}

	if err := mgr.Halt(); err != nil {
		log.Printf("warning: halt failed: %v", err)
	}

	if !ok {
		fmt.Println("result: FAIL")
		os.Exit(1)
	}
	fmt.Println("result: PASS")
}

func printReport(report app.SelfTestReport) {
	unit := "m/s²"
	if report.Sensor == "gyro" {
		unit = "°/s"
	}
	fmt.Printf("%s self-test, axes %s (%s):\n", report.Sensor, report.Axes, unit)

	names := [3]string{"X", "Y", "Z"}
	for i, name := range names {
		if !report.Tested[i] {
			continue
		}
		status := "PASS"
		if !report.Pass[i] {
			status = "FAIL"
		}
		fmt.Printf("  %s: response %8.3f  trim %8.3f  %s\n",
			name, report.Response[i], report.Trim[i], status)
	}
	if report.WithinTolerance {
		fmt.Printf("  max response within allowable tolerance of 2*%.3f %s\n",
			report.Tolerance, unit)
	}
}
