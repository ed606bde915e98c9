package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/jrcode-ui/alchemy-discord-bot/internal/discord"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/dispute"
)

// Output defines the interface for notification delivery targets.
type Output interface {
	Name() string
	Send(ctx context.Context, notes []dispute.Notification) error
	Close() error
}

// --- 1. Discord Output ---

// DiscordOutput renders notifications as rich embeds and posts them to
// a Discord webhook, one message per dispute.
type DiscordOutput struct {
	client *discord.Client
}

func NewDiscordOutput(client *discord.Client) *DiscordOutput {
	return &DiscordOutput{client: client}
}

func (d *DiscordOutput) Name() string { return "discord" }

func (d *DiscordOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	var lastErr error
	failed := 0
	for _, n := range notes {
		msg := discord.Message{Embeds: []discord.Embed{BuildEmbed(n)}}
		if err := d.client.Send(ctx, msg); err != nil {
			failed++
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%d of %d embeds failed: %w", failed, len(notes), lastErr)
	}
	return nil
}

func (d *DiscordOutput) Close() error { return nil }

// BuildEmbed renders one notification as a Discord embed. Optional
// fields (requester, proposer, event time) appear only when the
// payload carried them.
func BuildEmbed(n dispute.Notification) discord.Embed {
	fields := []discord.EmbedField{
		{Name: "Disputed Outcome", Value: n.Outcome, Inline: true},
		{Name: "Disputer", Value: addressValue(n.ExplorerBase, n.Disputer), Inline: true},
	}
	if n.Requester != "" {
		fields = append(fields, discord.EmbedField{Name: "Requester", Value: addressValue(n.ExplorerBase, n.Requester), Inline: true})
	}
	if n.Proposer != "" {
		fields = append(fields, discord.EmbedField{Name: "Proposer", Value: addressValue(n.ExplorerBase, n.Proposer), Inline: true})
	}
	if n.EventTime != "" {
		fields = append(fields, discord.EmbedField{Name: "Event Time", Value: n.EventTime, Inline: true})
	}
	fields = append(fields, discord.EmbedField{
		Name:   "Transaction",
		Value:  fmt.Sprintf("[%s...](%s)", shortHash(n.TxHash), n.TxLink),
		Inline: false,
	})

	return discord.Embed{
		Title:       "❌ Price Disputed ❌",
		Description: fmt.Sprintf("**Title/Market:** %s\n", n.Title),
		Color:       0xFF0000,
		Fields:      fields,
		Footer:      &discord.EmbedFooter{Text: "Network: " + n.Network},
		Timestamp:   n.CreatedAt,
	}
}

// addressValue links an address to its explorer page. Placeholders and
// malformed values render as plain text instead of dead links.
func addressValue(base, addr string) string {
	if common.IsHexAddress(addr) {
		return fmt.Sprintf("[%s](%s/address/%s)", addr, base, addr)
	}
	return addr
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

// --- 2. Console Output ---

type ConsoleOutput struct {
	mu sync.Mutex
}

func NewConsoleOutput() *ConsoleOutput {
	return &ConsoleOutput{}
}

func (c *ConsoleOutput) Name() string { return "console" }

func (c *ConsoleOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	enc := json.NewEncoder(os.Stdout)
	for _, n := range notes {
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }

// --- 3. PostgreSQL Output ---

type PostgresOutput struct {
	db    *sql.DB
	table string
}

func NewPostgresOutput(url, table string) (*PostgresOutput, error) {
	if match, _ := regexp.MatchString("^[a-zA-Z0-9_]+$", table); !match {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			tx_hash TEXT,
			network TEXT,
			title TEXT,
			outcome TEXT,
			disputer TEXT,
			data JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_%s_tx ON %s (tx_hash);
	`, table, table, table)
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &PostgresOutput{db: db, table: table}, nil
}

func (p *PostgresOutput) Name() string { return "postgres" }

func (p *PostgresOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	valueStrings := make([]string, 0, len(notes))
	valueArgs := make([]interface{}, 0, len(notes)*6)
	for i, n := range notes {
		jsonData, _ := json.Marshal(n)
		k := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", k+1, k+2, k+3, k+4, k+5, k+6))
		valueArgs = append(valueArgs, n.TxHash, n.Network, n.Title, n.Outcome, n.Disputer, jsonData)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (tx_hash, network, title, outcome, disputer, data) VALUES %s", p.table, strings.Join(valueStrings, ","))
	_, err = tx.ExecContext(ctx, stmt, valueArgs...)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresOutput) Close() error { return p.db.Close() }

// --- 4. Redis Output ---

type RedisOutput struct {
	client *redis.Client
	key    string
	mode   string
}

func NewRedisOutput(addr, password string, db int, key, mode string) (*RedisOutput, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisOutput{client: rdb, key: key, mode: mode}, nil
}

func (r *RedisOutput) Name() string { return "redis" }

func (r *RedisOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	pipe := r.client.Pipeline()
	for _, n := range notes {
		data, _ := json.Marshal(n)
		if r.mode == "pubsub" {
			pipe.Publish(ctx, r.key, data)
		} else {
			pipe.LPush(ctx, r.key, data)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisOutput) Close() error { return r.client.Close() }

// --- 5. Kafka Output ---

type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaOutput(brokers []string, topic, user, password string) (*KafkaOutput, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	if user != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = user
		config.Net.SASL.Password = password
	}
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &KafkaOutput{producer: producer, topic: topic}, nil
}

func (k *KafkaOutput) Name() string { return "kafka" }

func (k *KafkaOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	var msgs []*sarama.ProducerMessage
	for _, n := range notes {
		data, _ := json.Marshal(n)
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(n.TxHash),
			Value: sarama.ByteEncoder(data),
		})
	}
	return k.producer.SendMessages(msgs)
}

func (k *KafkaOutput) Close() error { return k.producer.Close() }

// --- 6. RabbitMQ Output ---

type RabbitMQOutput struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func NewRabbitMQOutput(url, exchange, routingKey, queueName string, durable bool) (*RabbitMQOutput, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if exchange != "" {
		err = ch.ExchangeDeclare(exchange, "topic", durable, false, false, false, nil)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}
	if queueName != "" {
		q, _ := ch.QueueDeclare(queueName, durable, false, false, false, nil)
		ch.QueueBind(q.Name, routingKey, exchange, false, nil)
	}
	return &RabbitMQOutput{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

func (r *RabbitMQOutput) Name() string { return "rabbitmq" }

func (r *RabbitMQOutput) Send(ctx context.Context, notes []dispute.Notification) error {
	for _, n := range notes {
		data, _ := json.Marshal(n)
		err := r.ch.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         data,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *RabbitMQOutput) Close() error {
	r.ch.Close()
	return r.conn.Close()
}
