package imu

import (
	"testing"
	"time"

	"github.com/relabs-tech/mpu6886/internal/mpu6886"
)

func TestConvert(t *testing.T) {
	raw := Raw{
		Source: "mpu6886",
		Ax:     16384, Ay: 0, Az: -8192,
		Gx: 131, Gy: -262, Gz: 0,
		Temp: 0,
	}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	s, err := raw.Convert(mpu6886.AccelRange2G, mpu6886.GyroRange250, at)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if s.Ax != mpu6886.StandardGravity || s.Az != -mpu6886.StandardGravity/2 {
		t.Errorf("accel = [%v %v %v], want [g 0 -g/2]", s.Ax, s.Ay, s.Az)
	}
	if s.Gx != 1 || s.Gy != -2 {
		t.Errorf("gyro = [%v %v %v], want [1 -2 0]", s.Gx, s.Gy, s.Gz)
	}
	if s.TempC != 25 || s.TempF != 77 {
		t.Errorf("temp = %v°C/%v°F, want 25/77", s.TempC, s.TempF)
	}
	if s.Time != "2026-03-14T09:26:53Z" {
		t.Errorf("time = %q", s.Time)
	}
	if s.Source != "mpu6886" {
		t.Errorf("source = %q", s.Source)
	}
}

func TestConvertRejectsUnknownRange(t *testing.T) {
	if _, err := (Raw{}).Convert(mpu6886.AccelRange(9), mpu6886.GyroRange250, time.Now()); err == nil {
		t.Error("Convert accepted an unknown accel range")
	}
}

func TestSimSourceStaysInRange(t *testing.T) {
	src := NewSimSource()
	for i := 0; i < 5; i++ {
		raw, err := src.NextRaw()
		if err != nil {
			t.Fatalf("NextRaw: %v", err)
		}
		if raw.Source != "sim" {
			t.Fatalf("source = %q, want sim", raw.Source)
		}
		if raw.Az != 16384 {
			t.Errorf("sim gravity = %d, want 16384", raw.Az)
		}
		if raw.Ax < -2000 || raw.Ax > 2000 {
			t.Errorf("sim ax = %d out of band", raw.Ax)
		}
	}
}
