package config

import "sync"

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig
)

type TextractConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// Words below this confidence (0-100) are dropped.
	MinConfidence float64
}

func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		textractConfig = LoadTextractConfig()
	})
	return textractConfig
}

func LoadTextractConfig() *TextractConfig {
	loadEnv()

	return &TextractConfig{
		Region:        getEnv("AWS_REGION", "us-east-1"),
		Endpoint:      getEnv("AWS_ENDPOINT", ""),
		AccessKey:     getEnv("AWS_ACCESS_KEY", ""),
		SecretKey:     getEnv("AWS_SECRET_KEY", ""),
		MinConfidence: getFloat("TEXTRACT_MIN_CONFIDENCE", 0),
	}
}
