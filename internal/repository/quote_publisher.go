package repository

import (
	"context"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
	pkgkafka "stockpulse/pkg/kafka"
)

// KafkaQuotePublisher implements Publisher over a Kafka topic. The partition
// key is the stock symbol, so all records for one symbol stay ordered on one
// partition.
type KafkaQuotePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaQuotePublisher creates the stream publisher.
func NewKafkaQuotePublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaQuotePublisher{producer: producer, topic: topic}
}

func (p *KafkaQuotePublisher) PublishBatch(ctx context.Context, records []*models.StockRecord) (drepo.PublishReport, error) {
	if len(records) == 0 {
		return drepo.PublishReport{}, nil
	}

	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Symbol),
			Value: r,
		}
	}

	failed, err := p.producer.PublishBatch(ctx, p.topic, msgs)
	if err != nil {
		return drepo.PublishReport{Failed: failed}, err
	}
	return drepo.PublishReport{
		Published: len(records) - failed,
		Failed:    failed,
	}, nil
}

func (p *KafkaQuotePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaTradeSink implements TradeSink for the streaming sessions, keyed by
// symbol like the quote publisher.
type KafkaTradeSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTradeSink creates the session trade sink.
func NewKafkaTradeSink(producer *pkgkafka.Producer, topic string) drepo.TradeSink {
	return &KafkaTradeSink{producer: producer, topic: topic}
}

func (s *KafkaTradeSink) PublishTrades(ctx context.Context, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(trades))
	for i, t := range trades {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(t.Symbol),
			Value: t,
		}
	}
	_, err := s.producer.PublishBatch(ctx, s.topic, msgs)
	return err
}

func (s *KafkaTradeSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
