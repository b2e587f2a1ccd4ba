package config

// StorageConfig configures the attachment/CSV staging backend.
type StorageConfig struct {
	// Mode selects the fsx backend: "local" or "s3".
	Mode      string
	UploadDir string
	AWSRegion string
	AWSBucket string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", "local"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		AWSBucket: getEnv("AWS_BUCKET", "bulkmailer-uploads"),
	}
}
