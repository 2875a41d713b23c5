package modules

type S3Config struct {
	Region       string `yaml:"region" json:"region" default:"us-east-1"`
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" json:"use_path_style" envconfig:"USE_PATH_STYLE"`
}

type FeedConfig struct {
	BaseConfig
	S3 S3Config `yaml:"s3" json:"s3"`
}
