package config

const (
	SMSProviderTwilio = "twilio"
	SMSProviderSNS    = "sns"
	SMSProviderNone   = "none"
)

type SMSConfig struct {
	Provider           string        `yaml:"provider"`
	Twilio             *TwilioConfig `yaml:"twilio"`
	AWS                *AWSSNSConfig `yaml:"aws"`
	DefaultCountryCode string        `yaml:"default_country_code"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// AWSSNSConfig only carries the region. Credentials come from the default
// AWS chain (environment, shared config, instance role).
type AWSSNSConfig struct {
	Region string `yaml:"region"`
}

func loadSMSConfig() *SMSConfig {
	return &SMSConfig{
		Provider: getEnv("SMS_PROVIDER", SMSProviderNone),
		Twilio: &TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
		AWS: &AWSSNSConfig{
			Region: getEnv("AWS_REGION", "ca-central-1"),
		},
		DefaultCountryCode: getEnv("SMS_DEFAULT_COUNTRY_CODE", "+1"),
	}
}
