package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/jonathan/courtroom-viz/internal/storage"
)

// S3FromEnv reads the image bucket settings from ARTIFACT_S3_* variables,
// falling back to the MinIO root credentials.
func S3FromEnv() storage.S3Config {
	return storage.S3Config{
		Endpoint:  strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "courtroom-viz-images"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
	}
}

// APIKeyFromEnv returns GEMINI_API_KEY, or GOOGLE_API_KEY when it is unset
func APIKeyFromEnv() string {
	return firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")))
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
