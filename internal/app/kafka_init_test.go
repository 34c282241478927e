package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer("", logger)
	if err != nil {
		t.Errorf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer("invalid-broker:9999", logger)
	if err == nil {
		t.Error("expected error for invalid brokers")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestCloseKafka_NilProducer(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Не должно паниковать.
	closeKafka(nil, logger)
}

func TestNew_ContinuesWithoutKafkaOnProducerError(t *testing.T) {
	application, err := New(context.Background(), Config{
		MetricsAddr:  ":0",
		KafkaBrokers: "invalid-broker:9999",
	})
	if err != nil {
		t.Fatalf("new app must survive unreachable brokers: %v", err)
	}
	defer application.Close()

	if application.Engine == nil {
		t.Fatal("expected engine to be assembled")
	}
	if application.producer != nil || application.worker != nil {
		t.Fatal("expected no producer or worker after failed kafka init")
	}
}
