package config

const (
	// TopicIngestResult is the NSQ topic that receives one message per finished job.
	TopicIngestResult = "ingest.result"
)
