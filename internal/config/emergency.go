package config

type EmergencyConfig struct {
	// Numbers always receive an alert in addition to the ride participants.
	Numbers       []string `yaml:"numbers"`
	NotifyRiders  bool     `yaml:"notify_riders"`
	MessagePrefix string   `yaml:"message_prefix"`
}

func loadEmergencyConfig() *EmergencyConfig {
	return &EmergencyConfig{
		Numbers:       getEnvAsSlice("EMERGENCY_NUMBERS", []string{}),
		NotifyRiders:  getEnvAsBool("EMERGENCY_NOTIFY_RIDERS", true),
		MessagePrefix: getEnv("EMERGENCY_MESSAGE_PREFIX", "UniCarpool emergency"),
	}
}
