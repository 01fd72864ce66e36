// Package config loads reader options from flags, environment and a yaml
// file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mpureader/core"
	"mpureader/mpu6050"
)

const DefaultAppName = "mpureader"
const DefaultConfigName = "config"
const DefaultEnvConfig = "MPUREADER_CONFIG"

const (
	DriverPeriph = "periph"
	DriverSim    = "sim"

	ModeTerm    = "term"
	ModeConsole = "console"
	ModeLog     = "log"
)

const DefaultBusSpeedKHz = 400
const DefaultTimeoutMS = 100
const DefaultSettleMS = 100
const DefaultPeriodMS = 100
const DefaultSerialBaud = 115200

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"

type BusOpt struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	Name      string `yaml:"name" mapstructure:"name"`
	SpeedKHz  int    `yaml:"speed_khz" mapstructure:"speed_khz"`
	TimeoutMS int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

type SensorOpt struct {
	Address    uint8 `yaml:"address" mapstructure:"address"`
	AccelRange uint8 `yaml:"accel_range" mapstructure:"accel_range"`
	GyroRange  uint8 `yaml:"gyro_range" mapstructure:"gyro_range"`
	SettleMS   int   `yaml:"settle_ms" mapstructure:"settle_ms"`
}

type LoopOpt struct {
	PeriodMS int `yaml:"period_ms" mapstructure:"period_ms"`
}

type SerialOpt struct {
	Device string `yaml:"device" mapstructure:"device"`
	Baud   int    `yaml:"baud" mapstructure:"baud"`
}

type UIOpt struct {
	Mode   string    `yaml:"mode" mapstructure:"mode"`
	Serial SerialOpt `yaml:"serial" mapstructure:"serial"`
}

type ReaderOpt struct {
	Bus    BusOpt    `yaml:"bus" mapstructure:"bus"`
	Sensor SensorOpt `yaml:"sensor" mapstructure:"sensor"`
	Loop   LoopOpt   `yaml:"loop" mapstructure:"loop"`
	UI     UIOpt     `yaml:"ui" mapstructure:"ui"`
	Debug  bool      `yaml:"debug" mapstructure:"debug"`
}

type ReaderDesc struct {
	Opt   ReaderOpt
	Viper *viper.Viper
}

func NewReaderDesc() ReaderDesc {
	return ReaderDesc{
		Opt:   NewReaderOpt(),
		Viper: nil,
	}
}

func NewReaderOpt() ReaderOpt {
	def := mpu6050.DefaultConfig()
	return ReaderOpt{
		Bus: BusOpt{
			Driver:    DriverPeriph,
			SpeedKHz:  DefaultBusSpeedKHz,
			TimeoutMS: DefaultTimeoutMS,
		},
		Sensor: SensorOpt{
			Address:    uint8(def.Address),
			AccelRange: def.AccelRange,
			GyroRange:  def.GyroRange,
			SettleMS:   DefaultSettleMS,
		},
		Loop: LoopOpt{
			PeriodMS: DefaultPeriodMS,
		},
		UI: UIOpt{
			Mode: ModeTerm,
			Serial: SerialOpt{
				Baud: DefaultSerialBaud,
			},
		},
		Debug: false,
	}
}

func setDefaults(v *viper.Viper) {
	def := NewReaderOpt()
	v.SetDefault("bus.driver", def.Bus.Driver)
	v.SetDefault("bus.name", def.Bus.Name)
	v.SetDefault("bus.speed_khz", def.Bus.SpeedKHz)
	v.SetDefault("bus.timeout_ms", def.Bus.TimeoutMS)
	v.SetDefault("sensor.address", def.Sensor.Address)
	v.SetDefault("sensor.accel_range", def.Sensor.AccelRange)
	v.SetDefault("sensor.gyro_range", def.Sensor.GyroRange)
	v.SetDefault("sensor.settle_ms", def.Sensor.SettleMS)
	v.SetDefault("loop.period_ms", def.Loop.PeriodMS)
	v.SetDefault("ui.mode", def.UI.Mode)
	v.SetDefault("ui.serial.device", def.UI.Serial.Device)
	v.SetDefault("ui.serial.baud", def.UI.Serial.Baud)
	v.SetDefault("debug", def.Debug)
}

// flagKeys binds command line flags to config keys. Flags missing from a
// command are skipped.
var flagKeys = map[string]string{
	"bus":         "bus.driver",
	"bus-name":    "bus.name",
	"address":     "sensor.address",
	"accel-range": "sensor.accel_range",
	"gyro-range":  "sensor.gyro_range",
	"ui":          "ui.mode",
	"serial":      "ui.serial.device",
	"baud":        "ui.serial.baud",
	"debug":       "debug",
}

func (o *ReaderDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	setDefaults(vipCfg)

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv(DefaultEnvConfig)
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
		}
	}

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = vipCfg.BindPFlag(key, f)
		}
	}

	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		log.Debugln("no config file found, using defaults")
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	o.Viper = vipCfg
	return o.Opt.Validate()
}

func (o *ReaderDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Validate checks every option that has a closed set of values.
func (o *ReaderOpt) Validate() error {
	switch o.Bus.Driver {
	case DriverPeriph, DriverSim:
	default:
		return fmt.Errorf("bus.driver: unknown driver %q", o.Bus.Driver)
	}
	switch o.UI.Mode {
	case ModeTerm, ModeConsole, ModeLog:
	default:
		return fmt.Errorf("ui.mode: unknown mode %q", o.UI.Mode)
	}
	if o.Bus.TimeoutMS <= 0 {
		return fmt.Errorf("bus.timeout_ms must be positive, got %d", o.Bus.TimeoutMS)
	}
	if o.Loop.PeriodMS <= 0 {
		return fmt.Errorf("loop.period_ms must be positive, got %d", o.Loop.PeriodMS)
	}
	if o.Sensor.SettleMS < 0 {
		return fmt.Errorf("sensor.settle_ms must not be negative, got %d", o.Sensor.SettleMS)
	}
	if err := o.SensorConfig().Validate(); err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	return nil
}

// SensorConfig is the device configuration the options describe.
func (o *ReaderOpt) SensorConfig() mpu6050.Config {
	return mpu6050.Config{
		Address:    core.I2CAddress(o.Sensor.Address),
		AccelRange: o.Sensor.AccelRange,
		GyroRange:  o.Sensor.GyroRange,
	}
}

// WriteOption writes opt as yaml to outputPath, creating parent directories.
func WriteOption(opt ReaderOpt, outputPath string) error {
	buffer, err := yaml.Marshal(opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(outputPath), 0700); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", path.Dir(outputPath), err)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", outputPath, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	if _, err := w.Write(buffer); err != nil {
		return fmt.Errorf("cannot write configuration: %w", err)
	}
	return w.Flush()
}

func askForConfirmationDefaultYes(s string) bool {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s [Y/n]: ", s)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes" || response == ""
}

// InitCfg writes a configuration template, or prints it with --print.
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewReaderDesc()
	if err := desc.Parse(cmd); err != nil {
		log.Errorln(err)
		return err
	}

	if printFlag {
		configBuffer, _ := yaml.Marshal(desc.Opt)
		fmt.Println(string(configBuffer))
		return nil
	}

	if !overwriteFlag {
		if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
			if !askForConfirmationDefaultYes("configuration " + outputPath + " already exist, overwrite?") {
				log.Infoln("abort")
				return nil
			}
		}
	}

	log.Infoln("writing default configuration to", outputPath)
	return WriteOption(desc.Opt, outputPath)
}
