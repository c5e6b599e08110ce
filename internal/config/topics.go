package config

const (
	// TopicIngestReplay is the NSQ topic carrying logged raw payloads back into the pipeline.
	TopicIngestReplay = "ingest.replay"

	// ChannelReplayWorker is the consumer channel of the replay worker.
	ChannelReplayWorker = "contenthub"
)
