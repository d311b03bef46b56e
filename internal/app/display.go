package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/mpu6886/internal/config"
	"github.com/relabs-tech/mpu6886/internal/imu"
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	// Raw counts
	raw     imu.Raw
	haveRaw bool

	// Converted sample
	sample     imu.Sample
	haveSample bool

	// Temperature
	tempC    float64
	tempF    float64
	haveTemp bool
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// Initialize display
	display, err := ssd1306.NewI2C(bus, cfg.DisplayI2CAddr, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	// Show splash screen
	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	content := cfg.DisplayContent
	if content == "" {
		content = "accel"
	}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to the topic matching the configured content
	if err := subscribeForContent(client, content, data, cfg); err != nil {
		return fmt.Errorf("failed to subscribe for display: %w", err)
	}

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		// Read data without copying the mutex
		data.mu.RLock()
		snapshot := DisplayData{
			raw:        data.raw,
			haveRaw:    data.haveRaw,
			sample:     data.sample,
			haveSample: data.haveSample,
			tempC:      data.tempC,
			tempF:      data.tempF,
			haveTemp:   data.haveTemp,
		}
		data.mu.RUnlock()

		if err := updateDisplay(display, content, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func subscribeForContent(client mqtt.Client, content string, data *DisplayData, cfg *config.Config) error {
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

	switch content {
	case "raw":
		token := client.Subscribe(topicRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var raw imu.Raw
			if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
				log.Printf("display: raw unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.raw = raw
			data.haveRaw = true
			data.mu.Unlock()
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topicRaw)

	case "accel", "gyro":
		token := client.Subscribe(topicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var sample imu.Sample
			if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
				log.Printf("display: sample unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.sample = sample
			data.haveSample = true
			data.mu.Unlock()
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topicIMU)

	case "temperature":
		token := client.Subscribe(topicTemp, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var temp struct {
				TempC float64 `json:"temp_c"`
				TempF float64 `json:"temp_f"`
			}
			if err := json.Unmarshal(msg.Payload(), &temp); err != nil {
				log.Printf("display: temperature unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.tempC = temp.TempC
			data.tempF = temp.TempF
			data.haveTemp = true
			data.mu.Unlock()
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topicTemp)

	default:
		return fmt.Errorf("unknown display content type: %s", content)
	}

	return nil
}

func updateDisplay(dev *ssd1306.Dev, content string, data *DisplayData) error {
	switch content {
	case "raw":
		return updateRawDisplay(dev, data.raw, data.haveRaw)
	case "accel":
		return updateAccelDisplay(dev, data.sample, data.haveSample)
	case "gyro":
		return updateGyroDisplay(dev, data.sample, data.haveSample)
	case "temperature":
		return updateTemperatureDisplay(dev, data.tempC, data.tempF, data.haveTemp)
	default:
		return fmt.Errorf("unknown display content type: %s", content)
	}
}

func updateRawDisplay(dev *ssd1306.Dev, raw imu.Raw, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("IMU raw"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		// Accel
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("A:%6d %6d", raw.Ax, raw.Ay)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("  %6d", raw.Az)))

		// Gyro
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("G:%6d %6d", raw.Gx, raw.Gy)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("  %6d", raw.Gz)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateAccelDisplay(dev *ssd1306.Dev, sample imu.Sample, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Accel m/s2"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte("Accel m/s2"))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("X:%8.3f", sample.Ax)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y:%8.3f", sample.Ay)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z:%8.3f", sample.Az)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateGyroDisplay(dev *ssd1306.Dev, sample imu.Sample, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Gyro deg/s"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte("Gyro deg/s"))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("X:%8.2f", sample.Gx)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y:%8.2f", sample.Gy)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z:%8.2f", sample.Gz)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateTemperatureDisplay(dev *ssd1306.Dev, tempC, tempF float64, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Temperature"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte("Die temp"))

		drawer.Dot = fixed.P(0, 32)
		drawer.DrawBytes([]byte(fmt.Sprintf("%6.1f C", tempC)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("%6.1f F", tempF)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("MPU-6886"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("IMU monitor"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("v1"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
