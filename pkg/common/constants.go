package common

const (
	StoreProviderMemory   = "memory"
	StoreProviderDatabase = "database"

	NotifierProviderMemory  = "memory"
	NotifierProviderWebhook = "webhook"
	NotifierProviderPulsar  = "pulsar"
)
