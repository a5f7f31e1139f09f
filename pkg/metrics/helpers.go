package metrics

import (
	"time"
)

type MongoOperation string

const (
	MongoOpFind   MongoOperation = "find"
	MongoOpInsert MongoOperation = "insert"
	MongoOpUpdate MongoOperation = "update"
	MongoOpUpsert MongoOperation = "upsert"
)

type MongoTimer struct {
	service    string
	operation  MongoOperation
	collection string
	start      time.Time
}

func NewMongoTimer(service string, op MongoOperation, collection string) *MongoTimer {
	return &MongoTimer{
		service:    service,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

func (mt *MongoTimer) ObserveDuration() {
	duration := time.Since(mt.start).Seconds()
	MongoOperationDuration.WithLabelValues(mt.service, string(mt.operation), mt.collection).Observe(duration)
}

func RecordMongoError(service string, op MongoOperation) {
	MongoErrors.WithLabelValues(service, string(op)).Inc()
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service, operation string) {
	RedisErrors.WithLabelValues(service, operation).Inc()
}

type LlmOperation string

const (
	LlmOpModeration LlmOperation = "moderation"
	LlmOpCompletion LlmOperation = "completion"
)

type LlmTimer struct {
	service   string
	operation LlmOperation
	start     time.Time
}

func NewLlmTimer(service string, op LlmOperation) *LlmTimer {
	return &LlmTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (lt *LlmTimer) ObserveDuration() {
	duration := time.Since(lt.start).Seconds()
	LlmRequestDuration.WithLabelValues(lt.service, string(lt.operation)).Observe(duration)
}

func RecordLlmError(service string, op LlmOperation) {
	LlmErrors.WithLabelValues(service, string(op)).Inc()
}

func RecordKafkaMessageProduced(service, topic string, duration time.Duration) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
	KafkaProduceDuration.WithLabelValues(service, topic).Observe(duration.Seconds())
}

func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}
