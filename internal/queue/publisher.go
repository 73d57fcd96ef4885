package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBacklogFull is returned when the publish backlog cannot take another
// message; the message is dropped.
var ErrBacklogFull = errors.New("publish backlog full")

const (
    defaultDialTimeout = 2 * time.Second
    defaultSendTimeout = 5 * time.Second
    defaultBacklog     = 256
)

// channel is the slice of *amqp.Channel the publisher uses.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type message struct {
    queue string
    body  []byte
}

// Publisher sends domain events to RabbitMQ. Publish calls only enqueue;
// a single worker dials the broker (bounded by DialTimeout) and sends each
// message under SendTimeout, so callers never wait on the broker.
// A nil *Publisher publishes nothing.
type Publisher struct {
    url         string
    log         *slog.Logger
    open        func() (channel, func(), error)
    DialTimeout time.Duration
    SendTimeout time.Duration

    backlog   chan message
    done      chan struct{}
    startOnce sync.Once
    closeOnce sync.Once
}

// NewPublisher returns nil when url is empty, which disables publishing.
func NewPublisher(url string, log *slog.Logger) *Publisher {
    if url == "" {
        return nil
    }
    if log == nil {
        log = slog.Default()
    }
    p := &Publisher{
        url:         url,
        log:         log,
        DialTimeout: defaultDialTimeout,
        SendTimeout: defaultSendTimeout,
        backlog:     make(chan message, defaultBacklog),
        done:        make(chan struct{}),
    }
    p.open = p.dial
    return p
}

func (p *Publisher) dial() (channel, func(), error) {
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(p.DialTimeout),
    })
    if err != nil {
        return nil, nil, fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("open channel: %w", err)
    }
    return ch, func() {
        _ = ch.Close()
        _ = conn.Close()
    }, nil
}

func (p *Publisher) PublishMemberRegistered(_ context.Context, ev MemberRegisteredEvent) error {
    return p.enqueue(MemberRegisteredQueue, ev)
}

func (p *Publisher) PublishAttendanceRecorded(_ context.Context, ev AttendanceRecordedEvent) error {
    return p.enqueue(AttendanceRecordedQueue, ev)
}

func (p *Publisher) enqueue(queue string, v any) error {
    if p == nil {
        return nil
    }
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("marshal %s: %w", queue, err)
    }
    p.startOnce.Do(func() { go p.run() })

    select {
    case p.backlog <- message{queue: queue, body: body}:
        return nil
    default:
        p.log.Warn("publish dropped", "queue", queue, "error", ErrBacklogFull)
        return ErrBacklogFull
    }
}

func (p *Publisher) run() {
    defer close(p.done)
    for m := range p.backlog {
        ctx, cancel := context.WithTimeout(context.Background(), p.SendTimeout)
        _ = p.send(ctx, m.queue, m.body)
        cancel()
    }
}

// Close stops accepting messages and waits for the backlog to drain or ctx
// to end. Publishing after Close panics.
func (p *Publisher) Close(ctx context.Context) error {
    if p == nil {
        return nil
    }
    p.closeOnce.Do(func() {
        p.startOnce.Do(func() { go p.run() })
        close(p.backlog)
    })
    select {
    case <-p.done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *Publisher) send(ctx context.Context, queue string, body []byte) error {
    ch, closeFn, err := p.open()
    if err != nil {
        p.log.Warn("publish skipped", "queue", queue, "error", err)
        return err
    }
    defer closeFn()

    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        p.log.Warn("queue declare failed", "queue", queue, "error", err)
        return fmt.Errorf("declare %s: %w", queue, err)
    }

    err = ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
    if err != nil {
        p.log.Warn("publish failed", "queue", queue, "error", err)
        return fmt.Errorf("publish %s: %w", queue, err)
    }
    return nil
}
