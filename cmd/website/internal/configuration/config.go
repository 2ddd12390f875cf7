package configuration

import (
	"github.com/adampresley/configinator"
	"github.com/joho/godotenv"
)

type Config struct {
	AdminPassword          string `flag:"adminpassword" env:"ADMIN_PASSWORD" default:"admin123" description:"Shared password for the admin area"`
	AdminPasswordHash      string `flag:"adminpasswordhash" env:"ADMIN_PASSWORD_HASH" default:"" description:"argon2id hash of the admin password. Takes precedence over ADMIN_PASSWORD"`
	AllowedExtensions      string `flag:"allowedext" env:"ALLOWED_EXTENSIONS" default:"png,jpg,jpeg,webp,gif" description:"Comma separated list of accepted image extensions, in cover lookup order"`
	AwsEndpointUrl         string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"" description:"AWS endpoint URL. Leave empty for AWS itself"`
	AwsRegion              string `flag:"awsregion" env:"AWS_REGION" default:"us-east-1" description:"AWS region"`
	AwsAccessKeyId         string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey     string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket              string `flag:"awsbucket" env:"AWS_BUCKET" default:"photogallery" description:"S3 bucket when STORAGE_BACKEND is s3"`
	CookieSecret           string `flag:"cookiesecret" env:"SECRET_KEY" default:"change-this-key" description:"Secret for signing session cookies"`
	Host                   string `flag:"host" env:"HOST" default:"127.0.0.1:5050" description:"The address and port to bind the HTTP server to"`
	LoginAttemptsPerMinute int    `flag:"loginattempts" env:"LOGIN_ATTEMPTS_PER_MINUTE" default:"10" description:"Admin login attempts allowed per client per minute. 0 disables throttling"`
	LogLevel               string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxUploadMB            int    `flag:"maxuploadmb" env:"MAX_UPLOAD_MB" default:"64" description:"Maximum size of an upload request in megabytes"`
	MaxUploadWorkers       int    `flag:"maxuploadworkers" env:"MAX_UPLOAD_WORKERS" default:"4" description:"Maximum number of files written concurrently per upload"`
	S3Prefix               string `flag:"s3prefix" env:"S3_PREFIX" default:"uploads" description:"Key prefix for albums when STORAGE_BACKEND is s3"`
	SiteName               string `flag:"sitename" env:"SITE_NAME" default:"Hugo Fotógrafo" description:"Name shown in the page header"`
	StorageBackend         string `flag:"storage" env:"STORAGE_BACKEND" default:"filesystem" description:"Where albums live. Valid values are 'filesystem' and 's3'"`
	UploadFolder           string `flag:"uploadfolder" env:"UPLOAD_FOLDER" default:"./static/uploads" description:"Root folder for albums when STORAGE_BACKEND is filesystem"`
}

/*
LoadConfig reads a .env file when one exists, then resolves flags,
environment and defaults.
*/
func LoadConfig() Config {
	_ = godotenv.Load()

	config := Config{}
	configinator.Behold(&config)
	return config
}
