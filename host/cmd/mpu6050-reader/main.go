package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mpureader/config"
	"mpureader/host/app"
)

var RootCmd = &cobra.Command{
	Use:          "mpu6050-reader",
	Short:        "read an MPU-6050 accelerometer/gyroscope over I2C",
	Long:         "read an MPU-6050 accelerometer/gyroscope over I2C and show live values, peak g and settings",
	SilenceUsage: true,
}

func commonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().String("bus", config.DriverPeriph, "bus driver: periph or sim")
	cmd.Flags().String("bus-name", "", "i2c bus name, empty for the first bus found")
	cmd.Flags().Uint8("address", uint8(0x68), "sensor address, 104 (0x68) or 105 (0x69)")
	cmd.Flags().Uint8("accel-range", 1, "accelerometer range index 0..3 (2/4/8/16 g)")
	cmd.Flags().Uint8("gyro-range", 1, "gyroscope range index 0..3 (250/500/1000/2000 deg/s)")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func ServeCmdRunE(cmd *cobra.Command, args []string) error {
	a, err := app.NewMainApp(cmd, args).PrepareRun()
	if err != nil {
		return err
	}
	return a.Run()
}

func ServeCmdFlags(cmd *cobra.Command) {
	commonFlags(cmd)
	cmd.Flags().StringP("ui", "u", config.ModeTerm, "presentation: term, console or log")
	cmd.Flags().String("serial", "", "serial device for the console presentation, empty for stdin/stdout")
	cmd.Flags().Int("baud", config.DefaultSerialBaud, "serial console baud rate")
}

var ServeCmd = &cobra.Command{
	Use: "serve",
	SuggestFor: []string{
		"ru", "ser",
	},
	Short: "serve polls the sensor and runs the menu using predefined configs.",
	Long: `serve polls the sensor and runs the menu using predefined configs, by the following order:
1. path specified in --config flag
2. path defined MPUREADER_CONFIG environment variable
3. default location $HOME/.config/mpureader/config.yaml, /etc/mpureader/config.yaml, current directory
The parameters in the configuration file will be overwritten by the following order:
1. command line arguments
2. environment variables
`,
	Example: `  mpu6050-reader serve --config=/path/to/config
  mpu6050-reader serve --bus sim --ui console`,
	RunE: ServeCmdRunE,
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output directory")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/mpureader/config.yaml
If --yes / -y flag is present, the configuration will be overwrite without confirmation
`,
	Example: `  mpu6050-reader init --print
  mpu6050-reader init -o /path/to/config.yaml -y`,
	RunE: config.InitCfg,
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe the sensor at both addresses",
	Long: `probe the sensor at both addresses.
The probe command configures and reads 0x68 and 0x69 on the configured bus and prints the result to stdout.
`,
	Example: `  mpu6050-reader probe --bus-name /dev/i2c-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewMainApp(cmd, args).PrepareRun()
		if err != nil {
			return err
		}
		return a.ProbeSensor()
	},
}

func getRootCmd() *cobra.Command {
	ServeCmdFlags(ServeCmd)
	RootCmd.AddCommand(ServeCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	commonFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	return RootCmd
}

func main() {
	if err := getRootCmd().Execute(); err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
}
