package config

type RabbitMQConfig struct {
	// URL is empty when event fan-out to the broker is disabled.
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	// Bindings maps queue name to routing key pattern.
	Bindings map[string]string `yaml:"bindings"`
}

func loadRabbitMQConfig() *RabbitMQConfig {
	return &RabbitMQConfig{
		URL:      getEnv("RABBITMQ_URL", ""),
		Exchange: getEnv("RABBITMQ_EXCHANGE", "carpool.events"),
		Bindings: map[string]string{
			getEnv("RABBITMQ_AUDIT_QUEUE", "carpool.audit"): "#",
		},
	}
}
