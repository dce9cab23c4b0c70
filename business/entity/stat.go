package entity

// ProcessorStat is a point-in-time snapshot of the stream processor
// counters and queue depths. Counters only ever grow; they are reset
// at process start and never afterwards.
type ProcessorStat struct {
	MessagesProcessed uint64 `json:"messages_processed"`
	ErrorCount        uint64 `json:"error_count"`
	SensorQueueDepth  int    `json:"sensor_queue_size"`
	ConfigQueueDepth  int    `json:"config_queue_size"`
	MaxPayloadSize    int    `json:"max_payload_size"`
}
