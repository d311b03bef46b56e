package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/imu"
	"github.com/relabs-tech/mpu6886/internal/mpu6886"
	"github.com/relabs-tech/mpu6886/internal/sensors"
)

// Initialize Prometheus metrics.
var (
	accelGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mpu6886_acceleration_ms2",
		Help: "Most recent accelerometer reading in m/s².",
	}, []string{"axis"})

	gyroGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mpu6886_angular_rate_dps",
		Help: "Most recent gyroscope reading in °/s.",
	}, []string{"axis"})

	tempGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mpu6886_temperature_celsius",
		Help: "Most recent die temperature in °C.",
	})

	samplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mpu6886_samples_total",
		Help: "Samples read from the IMU since start.",
	})

	sampleErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mpu6886_sample_errors_total",
		Help: "Failed IMU reads since start.",
	})

	publishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mpu6886_publish_errors_total",
		Help: "Failed MQTT publishes since start.",
	}, []string{"topic"})
)

// managerSource adapts the IMU manager to the sample source interface.
type managerSource struct {
	mgr *sensors.Manager
}

func (s managerSource) NextRaw() (imu.Raw, error) { return s.mgr.ReadRaw() }

// RunProducer reads the IMU on the configured interval and publishes raw
// counts, converted samples and temperature over MQTT. With useSim set it
// runs against a simulated source instead of hardware.
func RunProducer(useSim bool) error {
	log.Println("starting mpu6886 producer")

	cfg := config.Get()

	accelRange := mpu6886.AccelRange(cfg.IMUAccelRange)
	gyroRange := mpu6886.GyroRange(cfg.IMUGyroRange)

	var src imu.Source
	if useSim {
		log.Println("using simulated IMU source")
		src = imu.NewSimSource()
		// The simulator synthesizes counts at the base ranges.
		accelRange = mpu6886.AccelRange2G
		gyroRange = mpu6886.GyroRange250
	} else {
		mgr := sensors.GetIMUManager()
		if err := mgr.Init(); err != nil {
			log.Fatalf("failed to initialize IMU manager: %v", err)
			return err
		}
		logBaseline(mgr)
		src = managerSource{mgr: mgr}
	}

	// --- Prometheus metrics ---
	prometheus.MustRegister(accelGauge)
	prometheus.MustRegister(gyroGauge)
	prometheus.MustRegister(tempGauge)
	prometheus.MustRegister(samplesTotal)
	prometheus.MustRegister(sampleErrors)
	prometheus.MustRegister(publishErrors)

	if cfg.MetricsPort != 0 {
		metricsAddr := fmt.Sprintf(":%d", cfg.MetricsPort)
		http.Handle("/metrics", promhttp.Handler())
		go http.ListenAndServe(metricsAddr, nil)
		log.Printf("metrics served on %s/metrics", metricsAddr)
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	topicRaw := cfg.TopicIMURaw
	if topicRaw == "" {
		topicRaw = "mpu6886/imu/raw"
	}
	topicIMU := cfg.TopicIMU
	if topicIMU == "" {
		topicIMU = "mpu6886/imu"
	}
	topicTemp := cfg.TopicTemperature
	if topicTemp == "" {
		topicTemp = "mpu6886/temperature"
	}

	log.Println("connected to MQTT, starting publish loop")

	// main tick
	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		raw, err := src.NextRaw()
		if err != nil {
			sampleErrors.Inc()
			log.Printf("error reading IMU: %v", err)
			continue
		}
		samplesTotal.Inc()

		sample, err := raw.Convert(accelRange, gyroRange, t)
		if err != nil {
			sampleErrors.Inc()
			log.Printf("sample conversion error: %v", err)
			continue
		}

		accelGauge.WithLabelValues("x").Set(sample.Ax)
		accelGauge.WithLabelValues("y").Set(sample.Ay)
		accelGauge.WithLabelValues("z").Set(sample.Az)
		gyroGauge.WithLabelValues("x").Set(sample.Gx)
		gyroGauge.WithLabelValues("y").Set(sample.Gy)
		gyroGauge.WithLabelValues("z").Set(sample.Gz)
		tempGauge.Set(sample.TempC)

		// 1) Raw counts
		rawPayload, err := json.Marshal(raw)
		if err != nil {
			log.Printf("raw marshal error: %v", err)
			continue
		}
		if token := client.Publish(topicRaw, 0, true, rawPayload); token.Wait() && token.Error() != nil {
			publishErrors.WithLabelValues(topicRaw).Inc()
			log.Printf("MQTT publish error (%s): %v", topicRaw, token.Error())
			continue
		}

		// 2) Converted sample
		samplePayload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("sample marshal error: %v", err)
			continue
		}
		if token := client.Publish(topicIMU, 0, true, samplePayload); token.Wait() && token.Error() != nil {
			publishErrors.WithLabelValues(topicIMU).Inc()
			log.Printf("MQTT publish error (%s): %v", topicIMU, token.Error())
			continue
		}

		// 3) Temperature
		tempMsg := struct {
			TempC float64 `json:"temp_c"`
			TempF float64 `json:"temp_f"`
			Time  string  `json:"time"`
		}{
			TempC: sample.TempC,
			TempF: sample.TempF,
			Time:  sample.Time,
		}
		tempPayload, err := json.Marshal(tempMsg)
		if err != nil {
			log.Printf("temperature marshal error: %v", err)
			continue
		}
		if token := client.Publish(topicTemp, 0, true, tempPayload); token.Wait() && token.Error() != nil {
			publishErrors.WithLabelValues(topicTemp).Inc()
			log.Printf("MQTT publish error (%s): %v", topicTemp, token.Error())
		}

		log.Printf("%s tick: accel ax=%.2f ay=%.2f az=%.2f m/s² | gyro gx=%.2f gy=%.2f gz=%.2f °/s | temp=%.1f°C",
			t.Format(time.RFC3339),
			sample.Ax, sample.Ay, sample.Az,
			sample.Gx, sample.Gy, sample.Gz,
			sample.TempC,
		)
	}
	return nil
}

// logBaseline takes a two-pass averaged reading of both sensors at startup so
// the log records what the chip reports at rest and how stable it is.
func logBaseline(mgr *sensors.Manager) {
	if avg, tol, err := mgr.Baseline(mpu6886.SensorAccel); err != nil {
		log.Printf("WARNING: accel baseline failed: %v", err)
	} else {
		log.Printf("accel baseline: avg=[%.3f %.3f %.3f] m/s², spread=[%.3f %.3f %.3f]",
			avg[0], avg[1], avg[2], tol[0], tol[1], tol[2])
		if max(tol[0], tol[1], tol[2]) > accelSelfTestTolerance {
			log.Printf("WARNING: accel baseline spread above %.3f m/s², device may be moving",
				accelSelfTestTolerance)
		}
	}
	if avg, tol, err := mgr.Baseline(mpu6886.SensorGyro); err != nil {
		log.Printf("WARNING: gyro baseline failed: %v", err)
	} else {
		log.Printf("gyro baseline: avg=[%.3f %.3f %.3f] °/s, spread=[%.3f %.3f %.3f]",
			avg[0], avg[1], avg[2], tol[0], tol[1], tol[2])
		if max(tol[0], tol[1], tol[2]) > gyroSelfTestTolerance {
			log.Printf("WARNING: gyro baseline spread above %.3f °/s, device may be moving",
				gyroSelfTestTolerance)
		}
	}
}
