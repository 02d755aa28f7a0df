package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GoArmGo/UserApp/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Топик уведомлений моделируется durable fanout-exchange, consumer group —
// durable очередью, привязанной к нему. Продюсер и консюмер объявляют
// exchange независимо: операция идемпотентна.

// Publisher публикует уведомления об изменениях пользователей.
// Соединение открывается и закрывается на каждую публикацию:
// единица работы — connect/publish/close, постоянное соединение
// между запросами не удерживается.
type Publisher struct {
	cfg *config.Config
}

// NewPublisher создает новый Publisher. Само соединение откладывается
// до первой публикации
func NewPublisher(cfg *config.Config) *Publisher {
	return &Publisher{cfg: cfg}
}

// PublishUserEvent публикует одно текстовое сообщение в топик уведомлений.
// Любая ошибка возвращается вызывающему: политика best-effort (логировать
// и продолжать) реализуется на слое usecase, а не здесь
func (p *Publisher) PublishUserEvent(ctx context.Context, message string) error {
	conn, err := amqp.Dial(p.cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, p.cfg.RabbitMQ.RabbitMQTopic); err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(
		publishCtx,
		p.cfg.RabbitMQ.RabbitMQTopic, // exchange
		"",                           // routing key (fanout игнорирует)
		false,                        // mandatory
		false,                        // immediate
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        []byte(message),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	log.Printf("Message published to topic '%s': %s", p.cfg.RabbitMQ.RabbitMQTopic, message)
	return nil
}

// Consumer держит одну постоянную подписку на топик уведомлений.
// Создается на старте процесса и живет до его остановки
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	cfg     *config.Config
}

// NewConsumer создает и инициализирует нового консюмера RabbitMQ
func NewConsumer(cfg *config.Config) (*Consumer, error) {
	consumer := &Consumer{
		cfg: cfg,
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	consumer.conn = conn
	log.Println("Successfully connected to RabbitMQ!")

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	consumer.channel = ch

	if err := declareExchange(ch, cfg.RabbitMQ.RabbitMQTopic); err != nil {
		return nil, err
	}

	// Объявление очереди consumer group.
	// Это идемпотентная операция: очередь будет создана, если ее нет,
	// и ничего не произойдет, если она уже существует.
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQGroup, // name
		true,                       // durable - очередь будет сохраняться при перезапуске RabbitMQ
		false,                      // delete when unused
		false,                      // exclusive
		false,                      // no-wait
		nil,                        // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	consumer.queue = q

	if err := ch.QueueBind(
		q.Name,                     // queue
		"",                         // routing key
		cfg.RabbitMQ.RabbitMQTopic, // exchange
		false,                      // no-wait
		nil,                        // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to bind queue to exchange: %w", err)
	}

	log.Printf("Queue '%s' bound to topic '%s'. Messages in queue: %d", q.Name, cfg.RabbitMQ.RabbitMQTopic, q.Messages)

	return consumer, nil
}

// Close закрывает соединение и канал RabbitMQ
func (c *Consumer) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		} else {
			log.Println("RabbitMQ channel closed.")
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("Error closing RabbitMQ connection: %v", err)
		} else {
			log.Println("RabbitMQ connection closed.")
		}
	}
}

// StartConsumingUserEvents начинает потребление сообщений из очереди.
// Этот метод реализует интерфейс ports.UserEventConsumer.
// Подтверждение auto-ack: у консюмера нет логики повторов или dead-letter,
// каждое сообщение обрабатывается не более одного раза
func (c *Consumer) StartConsumingUserEvents(ctx context.Context, handler func(context.Context, string) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		true,         // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log.Printf("Consumer registered for queue '%s'. Waiting for messages...", c.queue.Name)

	// Запускаем горутину для обработки сообщений
	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					log.Println("RabbitMQ channel closed, stopping consumer.")
					return
				}

				if err := handler(ctx, string(msg.Body)); err != nil {
					log.Printf("Error processing message: %v, body: %s", err, string(msg.Body))
				}
			case <-ctx.Done():
				// Контекст отменен, останавливаем потребление
				log.Println("Context cancelled, stopping RabbitMQ consumer.")
				return
			}
		}
	}()

	return nil
}

// declareExchange объявляет durable fanout-exchange топика (идемпотентно)
func declareExchange(ch *amqp.Channel, topic string) error {
	if err := ch.ExchangeDeclare(
		topic,    // name
		"fanout", // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}
