package config

import "sync"

var (
	tesseractOnce   sync.Once
	tesseractConfig *TesseractConfig
)

type TesseractConfig struct {
	Languages []string
	// DPI used when rasterizing PDF pages.
	DPI           float64
	MinConfidence float64
	Preprocess    bool
}

func GetTesseractConfig() *TesseractConfig {
	tesseractOnce.Do(func() {
		tesseractConfig = LoadTesseractConfig()
	})
	return tesseractConfig
}

func LoadTesseractConfig() *TesseractConfig {
	loadEnv()

	langs := getList("TESSERACT_LANGUAGES")
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &TesseractConfig{
		Languages:     langs,
		DPI:           getFloat("TESSERACT_DPI", 300),
		MinConfidence: getFloat("TESSERACT_MIN_CONFIDENCE", 0),
		Preprocess:    getBool("TESSERACT_PREPROCESS", true),
	}
}
