package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig configures the Kafka producer
type ProducerConfig struct {
	Brokers []string

	BatchSize    int
	BatchTimeout time.Duration

	// RequiredAcks: 0 = no acks, 1 = leader only, -1 = all replicas
	RequiredAcks int

	MaxAttempts  int
	WriteTimeout time.Duration

	// Compression is one of none, gzip, snappy, lz4, zstd
	Compression string
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Brokers:      []string{"localhost:9092"},
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: 1,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		Compression:  "snappy",
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
