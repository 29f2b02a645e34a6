package constants

const (
	AppName      = "internhub"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "INTERNHUB"
)
