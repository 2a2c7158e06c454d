package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	ProfilesDir       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Collaborator configuration
	AnthropicAPIKey     string
	GenerationModel     string
	GenerationMaxTokens int
	ImageServiceURL     string
	ImageServiceKey     string
	PublishServiceURL   string
	PublishServiceKey   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
